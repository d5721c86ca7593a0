package inspect

// TypeDescriptor is a realized column type as reported by the backend.
// It is always fully resolved at reflection time; reflection never
// returns a deferred type reference.
type TypeDescriptor struct {
	// Name is the backend's name for the type, e.g. "VARCHAR" or
	// "TIMESTAMP WITH TIME ZONE".
	Name string

	// Length is the declared length for sized types, or 0.
	Length int64

	// Precision and Scale are set for numeric types, or 0.
	Precision int64
	Scale     int64
}

// Type returns a TypeDescriptor with the given backend type name.
func Type(name string) TypeDescriptor {
	return TypeDescriptor{Name: name}
}

// String returns the backend type name.
func (t TypeDescriptor) String() string { return t.Name }

// Column is one table column as discovered from backend metadata.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the realized column type.
	Type TypeDescriptor

	// Nullable reports column nullability.
	Nullable bool

	// Default is the column default expression as a SQL string, or ""
	// when the column has no default.
	Default string

	// AutoIncrement is the database-side autoincrement flag, when the
	// backend reports one.
	AutoIncrement *bool

	// Comment is the column comment, if present.
	Comment *string

	// Computed is set when the column is generated by the database.
	Computed *Computed

	// Identity is set when the column is an IDENTITY column.
	Identity *Identity

	// Options holds additional dialect-specific attributes.
	Options map[string]any
}

// Identity is the reflected IDENTITY metadata of a column.
type Identity struct {
	Always     bool   // GENERATED ALWAYS rather than BY DEFAULT
	OnNull     bool   // ON NULL
	Start      int64  // starting value of the sequence
	Increment  int64  // increment value of the sequence
	MinValue   int64  // minimum value of the sequence
	MaxValue   int64  // maximum value of the sequence
	NoMinValue bool   // no minimum value
	NoMaxValue bool   // no maximum value
	Cycle      bool   // wrap around at the bounds
	Cache      *int64 // precalculated future values, if reported
	Order      bool   // renders the ORDER keyword
}

// Computed is the reflected expression of a generated column.
type Computed struct {
	// SQLText is the generating expression as a SQL string.
	SQLText string

	// Persisted reports whether the value is stored rather than
	// computed on demand.
	Persisted bool
}

// CheckConstraint is one reflected CHECK constraint.
type CheckConstraint struct {
	Name    *string // nil when the backend leaves the constraint unnamed
	SQLText string
	Options map[string]any
}

// UniqueConstraint is one reflected UNIQUE constraint.
type UniqueConstraint struct {
	Name    *string
	Columns []string
	Options map[string]any
}

// PrimaryKey is the reflected primary key constraint of a table.
type PrimaryKey struct {
	Name    *string
	Columns []string
	Options map[string]any
}

// ForeignKey is one reflected FOREIGN KEY constraint.
type ForeignKey struct {
	Name            *string
	Columns         []string
	ReferredSchema  *string // nil when the referenced table is unqualified
	ReferredTable   string
	ReferredColumns []string
	Options         map[string]any
}

// Index is one reflected index.
type Index struct {
	Name    *string
	Columns []string
	Unique  bool

	// DuplicatesConstraint reports that the index mirrors a unique
	// constraint of the same name, when the backend can tell.
	DuplicatesConstraint *bool

	// IncludeColumns lists INCLUDE clause columns on supporting backends.
	IncludeColumns []string

	// ColumnSorting maps column names to sort keywords such as "asc",
	// "desc", "nulls_first", "nulls_last".
	ColumnSorting map[string][]string

	Options map[string]any
}

// TableComment is the reflected table-level comment. A nil Text means
// the table has no comment; an empty string is never used as a stand-in.
type TableComment struct {
	Text *string
}
