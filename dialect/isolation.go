package dialect

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/driver"
)

// Standard isolation level names, in the normalized form: uppercase,
// space-separated. AUTOCOMMIT is the reserved name for autocommit mode
// on backends that offer it.
const (
	LevelAutocommit      = "AUTOCOMMIT"
	LevelReadUncommitted = "READ UNCOMMITTED"
	LevelReadCommitted   = "READ COMMITTED"
	LevelRepeatableRead  = "REPEATABLE READ"
	LevelSerializable    = "SERIALIZABLE"
)

// IsolationLeveler is implemented by dialects that manage transaction
// isolation on a raw driver connection.
type IsolationLeveler interface {
	// GetIsolationLevel returns the connection's current isolation
	// level in normalized form.
	GetIsolationLevel(ctx context.Context, conn driver.Conn) (string, error)

	// SetIsolationLevel sets the connection's isolation level. The
	// level has already been normalized, and validated when the dialect
	// implements IsolationValuer.
	SetIsolationLevel(ctx context.Context, conn driver.Conn, level string) error

	// ResetIsolationLevel reverts the connection to its default level.
	ResetIsolationLevel(ctx context.Context, conn driver.Conn) error

	// DefaultIsolationLevel returns the level a fresh connection runs
	// at, used as the revert target for per-connection changes.
	DefaultIsolationLevel(ctx context.Context, conn driver.Conn) (string, error)
}

// IsolationValuer is implemented by dialects that can enumerate the
// isolation levels they accept. When present, the returned list is the
// authoritative whitelist validated before SetIsolationLevel; when
// absent, no pre-validation occurs and invalid values surface as driver
// failures.
type IsolationValuer interface {
	IsolationLevelValues(ctx context.Context, conn driver.Conn) ([]string, error)
}

// NormalizeIsolationLevel maps a requested isolation level to the
// normalized convention: uppercase with single spaces, underscores
// treated as separators.
func NormalizeIsolationLevel(level string) string {
	fields := strings.FieldsFunc(level, func(r rune) bool {
		return r == ' ' || r == '_' || r == '\t'
	})
	return strings.ToUpper(strings.Join(fields, " "))
}

// SetIsolation normalizes and validates the requested level, then
// applies it to the connection through the dialect. Validation happens
// only when the dialect implements IsolationValuer. Dialects without
// isolation support report seam.ErrUnsupported.
func SetIsolation(ctx context.Context, d Dialect, conn driver.Conn, level string) error {
	lv, ok := d.(IsolationLeveler)
	if !ok {
		return seam.Unsupportedf("isolation levels on dialect %q", d.Name())
	}
	normalized := NormalizeIsolationLevel(level)
	if valuer, ok := d.(IsolationValuer); ok {
		values, err := valuer.IsolationLevelValues(ctx, conn)
		if err != nil && !seam.IsUnsupported(err) {
			return err
		}
		if err == nil && !slices.Contains(values, normalized) {
			return seam.NewArgumentError("isolation_level", fmt.Errorf(
				"invalid value %q for dialect %q; accepted values: %s",
				normalized, d.Name(), strings.Join(values, ", "),
			))
		}
	}
	return lv.SetIsolationLevel(ctx, conn, normalized)
}
