package driver

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
)

// SQLConn adapts a database/sql database to the Conn protocol.
//
// Statement execution follows the implicit-transaction model of the
// protocol: the first Execute opens a database/sql transaction which is
// resolved by Commit or Rollback. Use WithAutocommit for sessions that
// should run every statement directly against the database.
type SQLConn struct {
	db         *sql.DB
	tx         *sql.Tx
	autocommit bool
	closed     bool
}

// SQLConnOption configures a SQLConn.
type SQLConnOption func(*SQLConn)

// WithAutocommit disables the implicit transaction: every statement is
// executed directly and Commit/Rollback become no-ops.
func WithAutocommit() SQLConnOption {
	return func(c *SQLConn) {
		c.autocommit = true
	}
}

// NewSQLConn wraps db in the Conn protocol.
func NewSQLConn(db *sql.DB, opts ...SQLConnOption) *SQLConn {
	c := &SQLConn{db: db}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DB returns the underlying *sql.DB.
func (c *SQLConn) DB() *sql.DB { return c.db }

// Cursor returns a new cursor bound to this connection.
func (c *SQLConn) Cursor() (Cursor, error) {
	if c.closed {
		return nil, fmt.Errorf("driver: connection is closed")
	}
	return &sqlCursor{conn: c, arraySize: 1, rowcount: -1}, nil
}

// Commit commits the implicit transaction, if one was started.
func (c *SQLConn) Commit() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

// Rollback rolls back the implicit transaction. Rolling back with no
// pending transaction is a no-op.
func (c *SQLConn) Rollback() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Rollback()
}

// Close rolls back any pending transaction and closes the database.
func (c *SQLConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.Rollback()
	if cerr := c.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// execer returns the transaction in progress, starting one if needed.
func (c *SQLConn) execer(ctx context.Context) (interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, error) {
	if c.autocommit {
		return c.db, nil
	}
	if c.tx == nil {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		c.tx = tx
	}
	return c.tx, nil
}

var _ Conn = (*SQLConn)(nil)

// returnsRows reports whether the statement produces a result set, which
// decides between QueryContext and ExecContext on the underlying database.
func returnsRows(statement string) bool {
	s := strings.TrimSpace(statement)
	if i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '(' }); i > 0 {
		s = s[:i]
	}
	switch strings.ToUpper(s) {
	case "SELECT", "WITH", "VALUES", "SHOW", "PRAGMA", "EXPLAIN", "DESCRIBE", "TABLE":
		return true
	}
	return false
}

type sqlCursor struct {
	conn      *SQLConn
	rows      *sql.Rows
	desc      []ColumnDescription
	ncols     int
	rowcount  int64
	arraySize int
}

func (cu *sqlCursor) Execute(ctx context.Context, statement string, params Params) error {
	if err := cu.reset(); err != nil {
		return err
	}
	ex, err := cu.conn.execer(ctx)
	if err != nil {
		return err
	}
	args := sqlArgs(params)
	if returnsRows(statement) {
		rows, err := ex.QueryContext(ctx, statement, args...)
		if err != nil {
			return err
		}
		return cu.bindRows(rows)
	}
	res, err := ex.ExecContext(ctx, statement, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		cu.rowcount = n
	}
	return nil
}

func (cu *sqlCursor) ExecuteMany(ctx context.Context, statement string, params []Params) error {
	if err := cu.reset(); err != nil {
		return err
	}
	ex, err := cu.conn.execer(ctx)
	if err != nil {
		return err
	}
	var total int64
	counted := true
	for _, p := range params {
		res, err := ex.ExecContext(ctx, statement, sqlArgs(p)...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			counted = false
			continue
		}
		total += n
	}
	if counted {
		cu.rowcount = total
	}
	return nil
}

func (cu *sqlCursor) FetchOne() (Row, error) {
	if cu.rows == nil {
		return nil, io.EOF
	}
	if !cu.rows.Next() {
		if err := cu.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return cu.scanRow()
}

func (cu *sqlCursor) FetchMany(size int) ([]Row, error) {
	if size <= 0 {
		size = cu.arraySize
	}
	var out []Row
	for len(out) < size {
		row, err := cu.FetchOne()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (cu *sqlCursor) FetchAll() ([]Row, error) {
	var out []Row
	for {
		row, err := cu.FetchOne()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
}

func (cu *sqlCursor) NextSet() (bool, error) {
	if cu.rows == nil {
		return false, nil
	}
	if !cu.rows.NextResultSet() {
		if err := cu.rows.Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, cu.describe()
}

func (cu *sqlCursor) Description() []ColumnDescription { return cu.desc }

func (cu *sqlCursor) RowCount() int64 { return cu.rowcount }

func (cu *sqlCursor) ArraySize() int { return cu.arraySize }

func (cu *sqlCursor) SetArraySize(n int) {
	if n > 0 {
		cu.arraySize = n
	}
}

func (cu *sqlCursor) Close() error {
	return cu.reset()
}

// reset discards any open result set and clears execution state.
func (cu *sqlCursor) reset() error {
	cu.desc = nil
	cu.ncols = 0
	cu.rowcount = -1
	if cu.rows == nil {
		return nil
	}
	rows := cu.rows
	cu.rows = nil
	return rows.Close()
}

func (cu *sqlCursor) bindRows(rows *sql.Rows) error {
	cu.rows = rows
	return cu.describe()
}

func (cu *sqlCursor) describe() error {
	cts, err := cu.rows.ColumnTypes()
	if err != nil {
		return err
	}
	cu.ncols = len(cts)
	cu.desc = make([]ColumnDescription, len(cts))
	for i, ct := range cts {
		d := ColumnDescription{Name: ct.Name(), TypeCode: ct.DatabaseTypeName()}
		if n, ok := ct.Length(); ok {
			d.InternalSize = &n
		}
		if p, s, ok := ct.DecimalSize(); ok {
			d.Precision, d.Scale = &p, &s
		}
		if nullable, ok := ct.Nullable(); ok {
			d.Nullable = &nullable
		}
		cu.desc[i] = d
	}
	return nil
}

func (cu *sqlCursor) scanRow() (Row, error) {
	vals := make([]any, cu.ncols)
	ptrs := make([]any, cu.ncols)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := cu.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return Row(vals), nil
}

var _ Cursor = (*sqlCursor)(nil)

// sqlArgs converts a parameter collection into database/sql arguments,
// mapping named parameters to sql.Named values.
func sqlArgs(p Params) []any {
	if p.IsNamed() {
		named := p.NamedValues()
		args := make([]any, 0, len(named))
		for k, v := range named {
			args = append(args, sql.Named(k, v))
		}
		return args
	}
	return p.Values()
}
