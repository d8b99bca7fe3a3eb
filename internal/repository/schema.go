package repository

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Execer runs a statement without returning rows
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) error
}

// Migrate creates the seats, reservations and outbox tables if missing
func Migrate(ctx context.Context, db Execer) error {
	if err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
