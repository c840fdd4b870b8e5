package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/roach88/querygate/internal/querysql"
)

// Store wraps a database handle with named-parameter binding and
// statement correlation.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for statement debug logging.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// Open connects with the given driver and DSN and verifies the
// connection is usable.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return New(db, opts...), nil
}

// New wraps an existing database handle. The caller keeps ownership of
// the handle's lifecycle unless Close is used.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query runs a compiled query and returns all rows as column-name maps.
func (s *Store) Query(ctx context.Context, compiled querysql.Compiled) ([]map[string]any, error) {
	return s.query(ctx, s.db, compiled)
}

// Exec runs a compiled statement that returns no rows and reports the
// number of affected rows.
func (s *Store) Exec(ctx context.Context, compiled querysql.Compiled) (int64, error) {
	stmtID := newStatementID()
	s.log.DebugContext(ctx, "executing statement",
		slog.String("statement_id", stmtID.String()),
		slog.String("sql", compiled.SQL),
		slog.Int("params", len(compiled.Params)))

	res, err := s.db.ExecContext(ctx, compiled.SQL, bindParams(compiled.Params)...)
	if err != nil {
		return 0, &StatementError{StatementID: stmtID, SQL: compiled.SQL, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &StatementError{StatementID: stmtID, SQL: compiled.SQL, Err: err}
	}
	return affected, nil
}

// WithTx runs fn inside a transaction, committing on nil and rolling
// back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	tx := &Tx{store: s, tx: sqlTx}

	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	return sqlTx.Commit()
}

// Tx exposes compiled-query execution inside one transaction.
type Tx struct {
	store *Store
	tx    *sql.Tx
}

// Query runs a compiled query within the transaction.
func (t *Tx) Query(ctx context.Context, compiled querysql.Compiled) ([]map[string]any, error) {
	return t.store.query(ctx, t.tx, compiled)
}

// Exec runs a compiled statement within the transaction.
func (t *Tx) Exec(ctx context.Context, compiled querysql.Compiled) (int64, error) {
	stmtID := newStatementID()
	res, err := t.tx.ExecContext(ctx, compiled.SQL, bindParams(compiled.Params)...)
	if err != nil {
		return 0, &StatementError{StatementID: stmtID, SQL: compiled.SQL, Err: err}
	}
	return res.RowsAffected()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) query(ctx context.Context, q querier, compiled querysql.Compiled) ([]map[string]any, error) {
	stmtID := newStatementID()
	s.log.DebugContext(ctx, "executing query",
		slog.String("statement_id", stmtID.String()),
		slog.String("sql", compiled.SQL),
		slog.Int("params", len(compiled.Params)))

	rows, err := q.QueryContext(ctx, compiled.SQL, bindParams(compiled.Params)...)
	if err != nil {
		return nil, &StatementError{StatementID: stmtID, SQL: compiled.SQL, Err: err}
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, &StatementError{StatementID: stmtID, SQL: compiled.SQL, Err: err}
	}
	return out, nil
}

// bindParams converts the parameter map to named driver arguments in
// sorted key order so binding is deterministic.
func bindParams(params map[string]any) []any {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = sql.Named(k, params[k])
	}
	return args
}

// scanRows drains a result set into column-name maps. Byte slices are
// copied to strings since the driver may reuse the buffer between rows.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// newStatementID returns a time-ordered UUID for log correlation.
// Falls back to a random UUID if the clock source fails.
func newStatementID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
