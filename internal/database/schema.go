package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL applied by EnsureSchema.
func Schema() string { return schema }

// EnsureSchema creates the reservation tables if they do not exist. The
// catalog tables (routes, stops, buses, trips, users, fare_rules) are
// owned by other services; they are created here only so a fresh database
// can run the engine.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
