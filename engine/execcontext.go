package engine

import (
	"context"
	"io"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/dialect"
	"github.com/seamdb/seam/driver"
)

// Compiled is the minimal surface this layer needs from a compiled
// statement. Statement compilation itself lives elsewhere; an
// implementation carries the rendered text, the bound parameters and
// the bookkeeping flags the execution lifecycle consumes.
type Compiled interface {
	// Statement is the rendered statement text.
	Statement() string

	// Params are the bound parameters.
	Params() driver.Params

	// IsInsert reports whether the statement is an INSERT.
	IsInsert() bool

	// IsUpdate reports whether the statement is an UPDATE.
	IsUpdate() bool

	// PrefetchColumns are the columns whose defaults must be computed
	// client-side before execution.
	PrefetchColumns() []string

	// PostfetchColumns are the columns whose server-generated values
	// must be fetched after execution.
	PostfetchColumns() []string

	// HasOutParameters reports whether the statement declares output
	// parameters.
	HasOutParameters() bool
}

// ExecContext carries the mutable state of one statement execution. An
// instance is created per execution call, driven through its phases by
// the owning connection, and discarded after result consumption.
type ExecContext interface {
	// PreExec finalizes statement text and parameters. After it returns,
	// Statement and Params are populated.
	PreExec() error

	// CreateCursor produces the cursor the statement executes on,
	// allowing backend-specific cursor variants.
	CreateCursor() (driver.Cursor, error)

	// PostExec finalizes insert bookkeeping after the dialect's execute
	// hook ran.
	PostExec() error

	// ResultStrategy selects how result rows are fetched.
	ResultStrategy() CursorStrategy

	// OutParameterValues extracts output parameter values. Called only
	// when the compiled statement flags output parameters.
	OutParameterValues() ([]any, error)

	// HandleError is the escape hatch invoked when a driver-level error
	// surfaces during the lifecycle. It returns the error to propagate.
	HandleError(err error) error

	// RowCount is the affected-row count, interpreted per dialect.
	RowCount() (int64, error)

	// Statement is the rendered statement text, valid after PreExec.
	Statement() string

	// Params are the final bound parameters, valid after PreExec.
	Params() driver.Params

	// Cursor is the live cursor, valid after CreateCursor.
	Cursor() driver.Cursor
}

// CursorFactory is implemented by dialects that produce backend-specific
// cursor variants instead of the connection's plain cursor.
type CursorFactory interface {
	NewCursor(conn driver.Conn) (driver.Cursor, error)
}

// RowCounter is implemented by dialects whose affected-row count needs
// interpretation beyond the raw driver value.
type RowCounter interface {
	InterpretRowCount(raw int64, cur driver.Cursor) (int64, error)
}

// DefaultExecContext is the standard ExecContext. Dialect packages embed
// it and override single phases.
type DefaultExecContext struct {
	conn     driver.Conn
	rootConn driver.Conn
	dialect  dialect.Dialect
	compiled Compiled

	statement string
	params    driver.Params
	cursor    driver.Cursor

	isInsert           bool
	isUpdate           bool
	prefetchCols       []string
	postfetchCols      []string
	lastRowHasDefaults bool
	buffered           bool
}

// NewExecContext builds an execution context for a raw statement.
func NewExecContext(d dialect.Dialect, conn driver.Conn, statement string, params driver.Params) *DefaultExecContext {
	return &DefaultExecContext{
		conn:      conn,
		rootConn:  conn,
		dialect:   d,
		statement: statement,
		params:    params,
	}
}

// NewCompiledExecContext builds an execution context for a compiled
// statement. Statement text and parameters are taken from the compiled
// form during PreExec.
func NewCompiledExecContext(d dialect.Dialect, conn driver.Conn, c Compiled) *DefaultExecContext {
	return &DefaultExecContext{
		conn:     conn,
		rootConn: conn,
		dialect:  d,
		compiled: c,
	}
}

// SetBuffered switches the context to the fully-buffered result
// strategy.
func (ec *DefaultExecContext) SetBuffered(buffered bool) { ec.buffered = buffered }

// PreExec implements ExecContext.
func (ec *DefaultExecContext) PreExec() error {
	if ec.compiled != nil {
		ec.statement = ec.compiled.Statement()
		ec.params = ec.compiled.Params()
		ec.isInsert = ec.compiled.IsInsert()
		ec.isUpdate = ec.compiled.IsUpdate()
		ec.prefetchCols = ec.compiled.PrefetchColumns()
		ec.postfetchCols = ec.compiled.PostfetchColumns()
	}
	if ec.statement == "" {
		return seam.NewArgumentError("statement", seam.Unsupportedf("empty statement"))
	}
	return nil
}

// CreateCursor implements ExecContext.
func (ec *DefaultExecContext) CreateCursor() (driver.Cursor, error) {
	var err error
	if f, ok := ec.dialect.(CursorFactory); ok {
		ec.cursor, err = f.NewCursor(ec.conn)
	} else {
		ec.cursor, err = ec.conn.Cursor()
	}
	return ec.cursor, err
}

// PostExec implements ExecContext. Inserts with post-fetch columns mark
// the last row as carrying server-generated defaults.
func (ec *DefaultExecContext) PostExec() error {
	if ec.isInsert && len(ec.postfetchCols) > 0 {
		ec.lastRowHasDefaults = true
	}
	return nil
}

// ResultStrategy implements ExecContext.
func (ec *DefaultExecContext) ResultStrategy() CursorStrategy {
	if ec.buffered {
		return BufferedCursorStrategy{}
	}
	return DefaultCursorStrategy{}
}

// OutParameterValues implements ExecContext. Dialects with output
// parameter support embed DefaultExecContext and override it.
func (ec *DefaultExecContext) OutParameterValues() ([]any, error) {
	return nil, seam.Unsupportedf("output parameters")
}

// HandleError implements ExecContext. The default keeps the error as
// is; the engine-level pipeline does the wrapping.
func (ec *DefaultExecContext) HandleError(err error) error { return err }

// RowCount implements ExecContext.
func (ec *DefaultExecContext) RowCount() (int64, error) {
	raw := ec.cursor.RowCount()
	if rc, ok := ec.dialect.(RowCounter); ok {
		return rc.InterpretRowCount(raw, ec.cursor)
	}
	return raw, nil
}

// Statement implements ExecContext.
func (ec *DefaultExecContext) Statement() string { return ec.statement }

// Params implements ExecContext.
func (ec *DefaultExecContext) Params() driver.Params { return ec.params }

// Cursor implements ExecContext.
func (ec *DefaultExecContext) Cursor() driver.Cursor { return ec.cursor }

// IsInsert reports whether the executed statement was classified as an
// INSERT.
func (ec *DefaultExecContext) IsInsert() bool { return ec.isInsert }

// IsUpdate reports whether the executed statement was classified as an
// UPDATE.
func (ec *DefaultExecContext) IsUpdate() bool { return ec.isUpdate }

// PrefetchColumns lists columns whose defaults were computed before
// execution.
func (ec *DefaultExecContext) PrefetchColumns() []string { return ec.prefetchCols }

// PostfetchColumns lists columns with server-generated values to fetch
// after execution.
func (ec *DefaultExecContext) PostfetchColumns() []string { return ec.postfetchCols }

// LastRowHasDefaults reports whether the final inserted row carries
// server-generated defaults still to be fetched.
func (ec *DefaultExecContext) LastRowHasDefaults() bool { return ec.lastRowHasDefaults }

var _ ExecContext = (*DefaultExecContext)(nil)

// Result is the outcome of one statement execution. Rows is populated
// only by the buffered strategy; otherwise callers fetch from Cursor
// directly.
type Result struct {
	Cursor      driver.Cursor
	Rows        []driver.Row
	Description []driver.ColumnDescription
	RowCount    int64
	OutParams   []any
}

// CursorStrategy decides how result rows reach the caller.
type CursorStrategy interface {
	// Fetch turns the executed cursor into a Result.
	Fetch(ctx context.Context, ec ExecContext) (*Result, error)
}

// DefaultCursorStrategy leaves rows on the cursor for streaming
// consumption.
type DefaultCursorStrategy struct{}

// Fetch implements CursorStrategy.
func (DefaultCursorStrategy) Fetch(_ context.Context, ec ExecContext) (*Result, error) {
	cur := ec.Cursor()
	count, err := ec.RowCount()
	if err != nil {
		return nil, err
	}
	return &Result{Cursor: cur, Description: cur.Description(), RowCount: count}, nil
}

// BufferedCursorStrategy drains the cursor eagerly and closes it.
type BufferedCursorStrategy struct{}

// Fetch implements CursorStrategy.
func (BufferedCursorStrategy) Fetch(_ context.Context, ec ExecContext) (*Result, error) {
	cur := ec.Cursor()
	desc := cur.Description()
	count, err := ec.RowCount()
	if err != nil {
		return nil, err
	}
	var rows []driver.Row
	if len(desc) > 0 {
		rows, err = cur.FetchAll()
		if err != nil && err != io.EOF {
			return nil, err
		}
	}
	if err := cur.Close(); err != nil {
		return nil, err
	}
	return &Result{Rows: rows, Description: desc, RowCount: count}, nil
}
