package database

// Atomic multi-statement writes for PlanTogether.
//
// SurrealDB has no connection-level transaction handle over this driver,
// so atomicity is expressed by batching: statements accumulate in a
// Batch and execute together inside one BEGIN/COMMIT TRANSACTION block.
// Event deletion uses this to remove the event document and its
// notifications as one unit.
//
//	batch := database.NewBatch().
//		Add("DELETE type::record($event_id)", vars1).
//		Add("DELETE notification WHERE eventId = $event_id", vars2)
//	err := batch.Run(ctx, db)
//
// Variables are namespaced per statement ($event_id becomes $s1_event_id)
// so statements from different call sites never collide. There is no
// isolation between Add calls; everything commits or fails at Run.

import (
	"context"
	"fmt"
	"strings"
)

// Batch accumulates statements for a single atomic execution
type Batch struct {
	statements []string
	vars       map[string]interface{}
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{vars: make(map[string]interface{})}
}

// Add appends a statement, renaming its variables into a per-statement
// namespace. Returns the batch for chaining.
func (b *Batch) Add(query string, vars map[string]interface{}) *Batch {
	n := len(b.statements) + 1
	for name, value := range vars {
		scoped := fmt.Sprintf("s%d_%s", n, name)
		query = strings.ReplaceAll(query, "$"+name, "$"+scoped)
		b.vars[scoped] = value
	}
	b.statements = append(b.statements, query)
	return b
}

// Len returns the number of accumulated statements
func (b *Batch) Len() int {
	return len(b.statements)
}

// Run executes all statements inside one transaction block. An empty
// batch is a no-op.
func (b *Batch) Run(ctx context.Context, db Database) error {
	query := b.build()
	if query == "" {
		return nil
	}
	if err := db.Execute(ctx, query, b.vars); err != nil {
		return fmt.Errorf("batch of %d statements failed: %w", len(b.statements), err)
	}
	return nil
}

func (b *Batch) build() string {
	if len(b.statements) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String()
}
