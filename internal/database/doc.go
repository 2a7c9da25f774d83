// Package database provides the storage layer for the PlanTogether API.
//
// It defines the Database interface over SurrealDB, keeping repositories
// free of driver details.
//
// # Interface Design
//
// Three query methods cover the repositories' needs:
//
//	type Database interface {
//	    Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
//	    QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
//	    Execute(ctx context.Context, query string, vars map[string]interface{}) error
//	}
//
// Query returns one entry per SurrealQL statement. Each entry is that
// statement's raw result, usually a list of record maps. A failed
// statement turns the whole call into an error; callers never see
// partial status markers. QueryOne returns the first record of the
// first statement, or ErrNotFound.
//
// # Atomicity
//
// Multi-statement writes go through Batch: statements accumulate and run
// inside one BEGIN/COMMIT TRANSACTION block, so they succeed or fail
// together. Event deletion uses this to drop the event document and its
// notifications as one unit. There is no connection-level transaction
// handle and no isolation between Add calls.
//
// # Error Types
//
// Standard errors, checked with errors.Is():
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique constraint violation
//   - ErrConflict: a guarded update matched no rows
//   - ErrConnection: connection failures
//   - ErrQuery: statement execution failures
//
// # Usage Example
//
//	db := database.NewSurrealDB(cfg)
//	db.Connect(ctx)
//	defer db.Close()
//
//	record, err := db.QueryOne(ctx,
//	    "SELECT * FROM event WHERE shareToken = $token",
//	    map[string]interface{}{"token": token})
package database
