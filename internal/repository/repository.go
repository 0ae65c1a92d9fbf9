package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBTX is an interface abstracting *sqlx.DB and *sqlx.Tx for repository use.
// Queries are written with ? placeholders and passed through Rebind so the
// same text runs on go-ora and pgx.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	Rebind(query string) string
}

var (
	_ DBTX = (*sqlx.DB)(nil)
	_ DBTX = (*sqlx.Tx)(nil)
)
