// Package testdb runs acceptance tests against a real SurrealDB instance.
//
// Each TestDB gets its own namespace with the PlanTogether schema migrations
// applied, so tests exercise real constraints and indexes without seeing
// each other's data:
//
//	tdb := testdb.New(t)
//	defer tdb.Close()
//
//	tdb.MustExec("CREATE user SET email = $email", vars)
//
// Connection settings come from TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER,
// and TEST_DB_PASSWORD, defaulting to a local root/root instance on port
// 8000.
//
// When a test has many subtests and re-running migrations per subtest is
// too slow, share one namespace and reset the data between them:
//
//	shared := testdb.NewShared(t)
//	defer shared.Close()
//
//	t.Run("vote", func(t *testing.T) {
//	    tdb := shared.SetupSubtest(t)
//	    ...
//	})
package testdb
