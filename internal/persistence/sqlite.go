package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/spec-kit/oirs-service/internal/config"
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// SQLite is an embedded store backed by mattn/go-sqlite3. Writers are
// serialized through a single connection and BEGIN IMMEDIATE transactions.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite opens (creating if needed) the database file at cfg.Path.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite")
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("opened sqlite database", zap.String("path", cfg.Path))
	return &SQLite{DB: db}, nil
}

func (s *SQLite) Close() {
	if s != nil && s.DB != nil {
		_ = s.DB.Close()
	}
}

func (s *SQLite) Dialect() Dialect { return DialectSQLite }

func (s *SQLite) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("sqlite database not configured")
	}
	return s.DB.PingContext(ctx)
}

func (s *SQLite) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlConn{s.DB}.Exec(ctx, query, args...)
}

func (s *SQLite) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlConn{s.DB}.QueryRow(ctx, query, args...)
}

func (s *SQLite) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return sqlConn{s.DB}.Query(ctx, query, args...)
}

// WithTx executes fn inside a BEGIN IMMEDIATE transaction.
func (s *SQLite) WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, sqlConn{tx}); err != nil {
		return err
	}

	return mapSQLiteError(tx.Commit())
}

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlConn struct {
	q sqlQuerier
}

func (c sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.q.ExecContext(ctx, rebind(query), sqliteArgs(args)...)
	if err != nil {
		return 0, mapSQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (c sqlConn) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{c.q.QueryRowContext(ctx, rebind(query), sqliteArgs(args)...)}
}

func (c sqlConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.q.QueryContext(ctx, rebind(query), sqliteArgs(args)...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	return sqlRows{rows}, nil
}

type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error {
	return mapSQLiteError(r.row.Scan(dest...))
}

type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Next() bool             { return r.rows.Next() }
func (r sqlRows) Scan(dest ...any) error { return mapSQLiteError(r.rows.Scan(dest...)) }
func (r sqlRows) Err() error             { return mapSQLiteError(r.rows.Err()) }
func (r sqlRows) Close()                 { _ = r.rows.Close() }

// rebind turns $n placeholders into SQLite's numbered ?n form.
func rebind(query string) string {
	return placeholderRe.ReplaceAllString(query, "?$1")
}

// sqliteArgs stores instants in UTC so their text form sorts chronologically.
func sqliteArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case time.Time:
			out[i] = v.UTC()
		case *time.Time:
			if v == nil {
				out[i] = nil
			} else {
				out[i] = v.UTC()
			}
		default:
			out[i] = arg
		}
	}
	return out
}

func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, sqliteErr.Error())
		}
	}
	return err
}
