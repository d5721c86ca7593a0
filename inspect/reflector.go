package inspect

import (
	"context"

	"github.com/seamdb/seam/driver"
)

// Reflector is the schema-reflection contract a dialect may implement.
// Every method takes a live connection, a target name and an optional
// schema qualifier ("" for the default schema). Methods covering
// features the backend lacks return seam.ErrUnsupported; callers treat
// that as absence of a feature, not as a failure.
type Reflector interface {
	// Columns returns the columns of the named table.
	Columns(ctx context.Context, conn driver.Conn, table, schema string) ([]Column, error)

	// PrimaryKeyConstraint returns the table's primary key constraint.
	PrimaryKeyConstraint(ctx context.Context, conn driver.Conn, table, schema string) (PrimaryKey, error)

	// ForeignKeys returns the table's foreign key constraints.
	ForeignKeys(ctx context.Context, conn driver.Conn, table, schema string) ([]ForeignKey, error)

	// Indexes returns the table's indexes.
	Indexes(ctx context.Context, conn driver.Conn, table, schema string) ([]Index, error)

	// UniqueConstraints returns the table's unique constraints.
	UniqueConstraints(ctx context.Context, conn driver.Conn, table, schema string) ([]UniqueConstraint, error)

	// CheckConstraints returns the table's check constraints.
	CheckConstraints(ctx context.Context, conn driver.Conn, table, schema string) ([]CheckConstraint, error)

	// TableOptions returns backend-specific table options.
	TableOptions(ctx context.Context, conn driver.Conn, table, schema string) (map[string]any, error)

	// TableComment returns the table-level comment.
	TableComment(ctx context.Context, conn driver.Conn, table, schema string) (TableComment, error)

	// TableNames lists the tables in the schema.
	TableNames(ctx context.Context, conn driver.Conn, schema string) ([]string, error)

	// TempTableNames lists the temporary tables visible on the connection.
	TempTableNames(ctx context.Context, conn driver.Conn, schema string) ([]string, error)

	// ViewNames lists the views in the schema.
	ViewNames(ctx context.Context, conn driver.Conn, schema string) ([]string, error)

	// TempViewNames lists the temporary views visible on the connection.
	TempViewNames(ctx context.Context, conn driver.Conn, schema string) ([]string, error)

	// ViewDefinition returns the defining statement of the named view.
	ViewDefinition(ctx context.Context, conn driver.Conn, view, schema string) (string, error)

	// SequenceNames lists the sequences in the schema.
	SequenceNames(ctx context.Context, conn driver.Conn, schema string) ([]string, error)

	// HasTable reports whether the named table or view exists.
	HasTable(ctx context.Context, conn driver.Conn, table, schema string) (bool, error)

	// HasIndex reports whether the named index exists on the table.
	HasIndex(ctx context.Context, conn driver.Conn, table, index, schema string) (bool, error)

	// HasSequence reports whether the named sequence exists.
	HasSequence(ctx context.Context, conn driver.Conn, sequence, schema string) (bool, error)
}
