package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx querying shared by *pgxpool.Pool, pgx.Tx
// and pgxmock pools. Repositories are written against it so the same
// SQL runs inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB adds transaction support for repositories that own an atomic
// check-then-act unit of work.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}
