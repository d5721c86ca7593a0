// Package driver defines the driver-level connection and cursor protocol
// that every dialect drives.
//
// The protocol mirrors the conventional blocking cursor model: a [Conn]
// produces a [Cursor], statements are executed through the cursor, and
// result rows are fetched from it. Dialects never talk to a database
// library directly; they issue all statement execution against this
// surface, which keeps the rest of the framework agnostic of how a
// particular driver is wired.
//
// # Core Surface
//
//	type Conn interface {
//	    Cursor() (Cursor, error)
//	    Commit() error
//	    Rollback() error
//	    Close() error
//	}
//
//	type Cursor interface {
//	    Execute(ctx context.Context, statement string, params Params) error
//	    ExecuteMany(ctx context.Context, statement string, params []Params) error
//	    FetchOne() (Row, error)
//	    FetchMany(size int) ([]Row, error)
//	    FetchAll() ([]Row, error)
//	    NextSet() (bool, error)
//	    Description() []ColumnDescription
//	    RowCount() int64
//	    ArraySize() int
//	    SetArraySize(int)
//	    Close() error
//	}
//
// FetchOne returns io.EOF once the result set is exhausted.
//
// # Optional Extensions
//
// Drivers that support parameter type hints or stored procedures expose
// them through extension interfaces, discovered by type assertion:
//
//   - [TypedCursor]: SetInputSizes / SetOutputSize
//   - [ProcedureCursor]: CallProc
//
// # database/sql Bridge
//
// [NewSQLConn] adapts any database/sql database into the protocol, so
// existing Go drivers (and test doubles such as go-sqlmock) can back a
// dialect without writing a native protocol implementation.
package driver
