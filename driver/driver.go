package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Row is a single result row as produced by a cursor fetch.
type Row []any

// Params carries the bound parameters for one statement execution.
// Exactly one of Positional or Named is populated; which one depends on
// the paramstyle of the dialect driving the cursor.
type Params struct {
	positional []any
	named      map[string]any
}

// Positional returns a positional parameter collection.
func Positional(args ...any) Params {
	return Params{positional: args}
}

// Named returns a named parameter collection.
func Named(args map[string]any) Params {
	return Params{named: args}
}

// IsNamed reports whether the collection carries named parameters.
func (p Params) IsNamed() bool { return p.named != nil }

// Len returns the number of bound parameters.
func (p Params) Len() int {
	if p.named != nil {
		return len(p.named)
	}
	return len(p.positional)
}

// Values returns the positional parameter values.
func (p Params) Values() []any { return p.positional }

// NamedValues returns the named parameter map.
func (p Params) NamedValues() map[string]any { return p.named }

// String returns a compact representation for logging.
func (p Params) String() string {
	if p.named != nil {
		keys := make([]string, 0, len(p.named))
		for k := range p.named {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %v", k, p.named[k])
		}
		sb.WriteByte('}')
		return sb.String()
	}
	return fmt.Sprintf("%v", p.positional)
}

// ColumnDescription is one entry of a cursor description: the name and
// driver-reported type information of a result column. Optional members
// are nil when the driver does not report them.
type ColumnDescription struct {
	Name         string
	TypeCode     any
	DisplaySize  *int64
	InternalSize *int64
	Precision    *int64
	Scale        *int64
	Nullable     *bool
}

// ConnectArgs is the driver-native connect argument set produced by
// Dialect.CreateConnectArgs from a connection URL: positional arguments
// plus keyword options.
type ConnectArgs struct {
	Args []any
	Opts map[string]any
}

// Conn is a driver-level connection. Transactions are implicit: work is
// accumulated on the connection and resolved by Commit or Rollback.
type Conn interface {
	// Cursor returns a new cursor for statement execution.
	Cursor() (Cursor, error)

	// Commit commits the current implicit transaction.
	Commit() error

	// Rollback rolls back the current implicit transaction. Rolling back
	// with no pending work is a no-op, not an error.
	Rollback() error

	// Close closes the connection. The connection is unusable afterwards.
	Close() error
}

// Cursor executes statements and fetches result rows.
type Cursor interface {
	// Execute runs a single statement with the given parameters.
	Execute(ctx context.Context, statement string, params Params) error

	// ExecuteMany runs the statement once per parameter collection.
	ExecuteMany(ctx context.Context, statement string, params []Params) error

	// FetchOne returns the next row, or io.EOF when the set is exhausted.
	FetchOne() (Row, error)

	// FetchMany returns up to size rows. If size is zero or negative the
	// cursor's array size is used. A short (or empty) result indicates
	// exhaustion; it is not an error.
	FetchMany(size int) ([]Row, error)

	// FetchAll returns all remaining rows.
	FetchAll() ([]Row, error)

	// NextSet advances to the next result set, reporting whether one
	// exists.
	NextSet() (bool, error)

	// Description describes the columns of the current result set, or
	// nil for statements that return no rows.
	Description() []ColumnDescription

	// RowCount returns the affected-row count of the last execution, or
	// -1 when the driver cannot determine it (typically for queries).
	RowCount() int64

	// ArraySize returns the default fetch size used by FetchMany.
	ArraySize() int

	// SetArraySize sets the default fetch size used by FetchMany.
	SetArraySize(n int)

	// Close closes the cursor.
	Close() error
}

// TypedCursor is implemented by cursors that accept driver-level
// parameter type hints before execution.
type TypedCursor interface {
	Cursor

	// SetInputSizes predeclares parameter types for the next execution.
	SetInputSizes(sizes []any) error

	// SetOutputSize predeclares a large-column buffer size for the next
	// execution.
	SetOutputSize(size int64, column int) error
}

// ProcedureCursor is implemented by cursors that can invoke stored
// procedures directly.
type ProcedureCursor interface {
	Cursor

	// CallProc invokes the named stored procedure. After the call, result
	// rows (if any) are fetched from the cursor as usual.
	CallProc(ctx context.Context, name string, params Params) error
}
