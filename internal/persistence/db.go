package persistence

import (
	"context"
	"errors"
)

var (
	// ErrNoRows is returned by Row.Scan when the query matched nothing.
	ErrNoRows = errors.New("persistence: no rows in result set")
	// ErrUniqueViolation wraps driver errors raised by a unique or primary key constraint.
	ErrUniqueViolation = errors.New("persistence: unique constraint violation")
)

// Dialect identifies the SQL flavour behind a DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// LockClause returns the row lock suffix for a SELECT inside a transaction.
// SQLite serializes writers at BEGIN IMMEDIATE and needs none.
func (d Dialect) LockClause() string {
	if d == DialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result cursor. Close must be called when done.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier runs statements written with $n placeholders. Both a DB and the
// handle passed to a transaction callback implement it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// DB is a transactional SQL store.
type DB interface {
	Querier
	Dialect() Dialect
	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
	Ping(ctx context.Context) error
	Close()
}
