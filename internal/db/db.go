// Package db provides read-only lookups against the NOMIS reporting replica.
// All repositories accept a DBTX interface that is satisfied by both
// *pgxpool.Pool and pgx.Tx, enabling clean transaction support even though
// the enrichment path only ever reads.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction, and so tests can substitute a fake.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
