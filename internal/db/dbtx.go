package db

import (
	"context"
	"database/sql"
)

// DBTX is what the course, structure, link and enrollment repositories run
// their SQL against. List reads pass the *sql.DB; the entity store passes the
// *sql.Tx from WithinTx for writes.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
