package dialect

// Paramstyle is the bound-parameter placeholder convention a driver
// expects.
type Paramstyle string

// The five conventional paramstyles.
const (
	// StyleQmark renders "?" placeholders.
	StyleQmark Paramstyle = "qmark"
	// StyleNumeric renders ":1", ":2" placeholders.
	StyleNumeric Paramstyle = "numeric"
	// StyleNamed renders ":name" placeholders.
	StyleNamed Paramstyle = "named"
	// StyleFormat renders "%s" placeholders.
	StyleFormat Paramstyle = "format"
	// StylePyformat renders "%(name)s" placeholders.
	StylePyformat Paramstyle = "pyformat"
)

// Positional reports whether the style binds parameters by position
// rather than by name.
func (p Paramstyle) Positional() bool {
	switch p {
	case StyleQmark, StyleNumeric, StyleFormat:
		return true
	}
	return false
}

// BindTyping is the strategy for communicating parameter types to the
// driver. Exactly one strategy applies per dialect and it never changes
// at runtime.
type BindTyping int

const (
	// BindNone takes no steps to pass typing information to the driver.
	BindNone BindTyping = iota

	// BindSetInputSizes predeclares parameter types on the cursor. The
	// dialect must implement InputSizer and the cursor must be a
	// driver.TypedCursor.
	BindSetInputSizes

	// BindRenderCasts renders casts or similar directives into the SQL
	// string itself.
	BindRenderCasts
)

// String returns the strategy name.
func (b BindTyping) String() string {
	switch b {
	case BindNone:
		return "none"
	case BindSetInputSizes:
		return "setinputsizes"
	case BindRenderCasts:
		return "render_casts"
	}
	return "unknown"
}

// Capabilities is the immutable capability descriptor of a dialect.
// It is fixed per dialect and safe to copy and share.
type Capabilities struct {
	// Paramstyle is the placeholder convention of the driver.
	Paramstyle Paramstyle

	// BindTyping selects how parameter types reach the driver.
	BindTyping BindTyping

	// MaxIdentifierLength is the longest identifier the backend accepts.
	MaxIdentifierLength int

	// SupportsAlter reports ALTER TABLE support, needed when foreign
	// key constraints must be added after table creation.
	SupportsAlter bool

	// SupportsSaneRowCount reports that the driver returns a correct
	// affected-row count for UPDATE and DELETE.
	SupportsSaneRowCount bool

	// SupportsSaneMultiRowCount is the same guarantee for ExecuteMany.
	SupportsSaneMultiRowCount bool

	// SupportsDefaultValues reports INSERT ... DEFAULT VALUES support.
	SupportsDefaultValues bool

	// PreexecuteAutoincrementSequences reports that implicit primary
	// key sequences must be executed separately to obtain their value.
	PreexecuteAutoincrementSequences bool

	// ImplicitReturning reports that RETURNING may be used to fetch
	// newly generated values from INSERT automatically.
	ImplicitReturning bool

	// SupportsSequences reports CREATE SEQUENCE or equivalent.
	SupportsSequences bool

	// SequencesOptional reports that declared sequences may be skipped
	// when the backend generates the value natively.
	SequencesOptional bool

	// SupportsNativeEnum reports a native ENUM construct.
	SupportsNativeEnum bool

	// SupportsNativeBoolean reports a native boolean type.
	SupportsNativeBoolean bool

	// SupportsComments reports comment DDL on tables and columns.
	SupportsComments bool

	// InlineComments reports that comments can be rendered inline with
	// the table or column definition rather than via ALTER.
	InlineComments bool

	// SupportsStatementCache reports that compiled statements may be
	// cached and reused against this dialect.
	SupportsStatementCache bool

	// SupportsTwoPhase advertises two-phase commit; the dialect must
	// also implement TwoPhaser.
	SupportsTwoPhase bool

	// RequiresNameNormalize reports that reflected identifiers need
	// case normalization through a NameNormalizer.
	RequiresNameNormalize bool
}
