package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements Database over the SurrealDB websocket driver
type SurrealDB struct {
	conn   *surrealdb.DB
	config Config
}

// NewSurrealDB creates an unconnected SurrealDB handle
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Connect dials the server, authenticates, and selects the configured
// namespace and database
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	conn, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if _, err := conn.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	}); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := conn.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("%w: use %s/%s failed: %v", ErrConnection, s.config.Namespace, s.config.Database, err)
	}

	slog.Debug("database connected",
		slog.String("endpoint", endpoint),
		slog.String("namespace", s.config.Namespace),
		slog.String("database", s.config.Database),
	)

	s.conn = conn
	return nil
}

// Close terminates the connection. Safe to call when never connected.
func (s *SurrealDB) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close(context.Background())
}

// Ping verifies the connection is alive
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.conn == nil {
		return ErrConnection
	}
	if _, err := s.conn.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes the statements in query and returns each statement's
// result payload in order. Any statement error fails the whole call.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.conn == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.conn, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if results == nil {
		return nil, nil
	}

	payloads := make([]interface{}, 0, len(*results))
	for _, statement := range *results {
		if statement.Status != "OK" {
			if statement.Error != nil {
				return nil, fmt.Errorf("%w: %s", ErrQuery, statement.Error.Message)
			}
			return nil, ErrQuery
		}
		payloads = append(payloads, statement.Result)
	}
	return payloads, nil
}

// QueryOne executes a query and returns the first record of the first
// statement. A statement that yields no records returns ErrNotFound.
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	payloads, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, ErrNotFound
	}

	first := payloads[0]
	if records, ok := first.([]interface{}); ok {
		if len(records) == 0 {
			return nil, ErrNotFound
		}
		return records[0], nil
	}
	if first == nil {
		return nil, ErrNotFound
	}
	// Scalar results (count queries, INFO) pass through unchanged
	return first, nil
}

// Execute runs a query and discards the results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}
