package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plantogether/api/internal/database"
)

// TestDB wraps a live SurrealDB connection scoped to a throwaway namespace.
// Every call to New gets its own namespace so parallel tests never see
// each other's users, events, or notifications.
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
	t         *testing.T
}

// namespaceSeq disambiguates namespaces created within the same nanosecond.
var namespaceSeq atomic.Int64

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testConfig builds a connection config from TEST_DB_* variables, falling
// back to the local `surreal start memory -A --user root --pass root` setup
// the acceptance tests document.
func testConfig() database.Config {
	return database.Config{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "8000"),
		User:     envOr("TEST_DB_USER", "root"),
		Password: envOr("TEST_DB_PASSWORD", "root"),
	}
}

func freshNamespace() string {
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), namespaceSeq.Add(1))
}

var schemaCache struct {
	once sync.Once
	ddl  []string
	err  error
}

// schemaStatements loads the project's *.surql migrations exactly once per
// test binary. Discovery walks upward from the working directory so the
// package works from any test package depth; PLANTOGETHER_ROOT overrides
// the search when tests run outside the repo tree. seed.surql is demo data,
// not schema, and is skipped.
func schemaStatements() ([]string, error) {
	schemaCache.once.Do(func() {
		dir, err := findMigrationsDir()
		if err != nil {
			schemaCache.err = err
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			schemaCache.err = fmt.Errorf("reading migrations dir: %w", err)
			return
		}

		var names []string
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".surql") && e.Name() != "seed.surql" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			ddl, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				schemaCache.err = fmt.Errorf("reading migration %s: %w", name, err)
				return
			}
			schemaCache.ddl = append(schemaCache.ddl, string(ddl))
		}
	})

	return schemaCache.ddl, schemaCache.err
}

func findMigrationsDir() (string, error) {
	if root := os.Getenv("PLANTOGETHER_ROOT"); root != "" {
		return filepath.Join(root, "migrations"), nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no migrations directory above %s (set PLANTOGETHER_ROOT)", dir)
		}
		dir = parent
	}
}

// New connects to the test SurrealDB, carves out a fresh namespace, and
// applies the schema migrations. Callers own cleanup via Close.
func New(t *testing.T) *TestDB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := testConfig()
	cfg.Namespace = freshNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: connect: %v", err)
	}

	ddl, err := schemaStatements()
	if err != nil {
		db.Close()
		t.Fatalf("testdb: load migrations: %v", err)
	}
	for i, stmt := range ddl {
		if err := db.Execute(ctx, stmt, nil); err != nil {
			db.Close()
			t.Fatalf("testdb: migration %d: %v", i+1, err)
		}
	}

	return &TestDB{
		DB:        db,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
		t:         t,
	}
}

// Close drops the test namespace and closes the connection. Cleanup errors
// are ignored; a leaked namespace in a scratch database is harmless.
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	tdb.DB.Close()
}

// Reset empties every table in the namespace while keeping the schema.
// Table names come from INFO FOR DB, whose single statement payload is the
// database info map.
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := tdb.DB.Query(ctx, "INFO FOR DB", nil)
	if err != nil {
		t.Fatalf("testdb: db info: %v", err)
	}
	if len(results) == 0 {
		return
	}

	info, ok := results[0].(map[string]interface{})
	if !ok {
		t.Fatalf("testdb: unexpected INFO FOR DB payload %T", results[0])
	}
	tables, ok := info["tables"].(map[string]interface{})
	if !ok {
		return
	}

	for name := range tables {
		if err := tdb.DB.Execute(ctx, fmt.Sprintf("DELETE FROM %s", name), nil); err != nil {
			t.Logf("testdb: clearing %s: %v", name, err)
		}
	}
}

// Ctx returns a context with a 10 second deadline for one-off test queries.
// The cancel func is dropped; the deadline bounds the context's lifetime.
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = cancel
	return ctx
}

// MustExec runs a statement and fails the test on error.
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec %q: %v", query, err)
	}
}

// MustQuery runs a query and returns its per-statement payloads, failing
// the test on error.
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query %q: %v", query, err)
	}
	return results
}

// Shared is a TestDB reused across subtests, paying the migration cost once.
type Shared struct {
	*TestDB
}

// NewShared creates a TestDB intended to be shared by a test's subtests.
func NewShared(t *testing.T) *Shared {
	return &Shared{TestDB: New(t)}
}

// SetupSubtest wipes all table data and rebinds the TestDB to the subtest.
// Call it at the top of each t.Run block.
func (s *Shared) SetupSubtest(t *testing.T) *TestDB {
	t.Helper()
	s.TestDB.t = t
	s.TestDB.Reset(t)
	return s.TestDB
}
