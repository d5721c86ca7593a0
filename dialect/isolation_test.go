package dialect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/dialect"
)

func TestNormalizeIsolationLevel(t *testing.T) {
	t.Parallel()

	for requested, want := range map[string]string{
		"repeatable_read":    "REPEATABLE READ",
		"REPEATABLE READ":    "REPEATABLE READ",
		"read committed":     "READ COMMITTED",
		"Read_Committed":     "READ COMMITTED",
		"serializable":       "SERIALIZABLE",
		"autocommit":         "AUTOCOMMIT",
		"read\tuncommitted":  "READ UNCOMMITTED",
	} {
		assert.Equal(t, want, dialect.NormalizeIsolationLevel(requested), "input %q", requested)
	}
}

func TestSetIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := &fakeConn{}

	d := &fakeDialect{name: "fake", values: []string{
		dialect.LevelReadCommitted,
		dialect.LevelRepeatableRead,
		dialect.LevelSerializable,
	}}

	// Every advertised value must round-trip through the normalizer.
	for _, level := range d.values {
		require.NoError(t, dialect.SetIsolation(ctx, d, conn, level))
		got, err := d.GetIsolationLevel(ctx, conn)
		require.NoError(t, err)
		assert.Equal(t, level, got)
	}

	// Lowercase underscore spelling normalizes before validation.
	require.NoError(t, dialect.SetIsolation(ctx, d, conn, "repeatable_read"))
	got, err := d.GetIsolationLevel(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, dialect.LevelRepeatableRead, got)

	// Values outside the whitelist are rejected up front.
	err = dialect.SetIsolation(ctx, d, conn, "READ UNCOMMITTED")
	require.Error(t, err)
	assert.True(t, seam.IsArgumentError(err))
}

func TestSetIsolationWithoutValuer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := &fakeConn{}

	// IsolationLevelValues reporting unsupported means no validation.
	d := &fakeDialect{name: "fake"}
	require.NoError(t, dialect.SetIsolation(ctx, d, conn, "snapshot"))
	got, err := d.GetIsolationLevel(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, "SNAPSHOT", got)
}

func TestSetIsolationUnsupported(t *testing.T) {
	t.Parallel()

	err := dialect.SetIsolation(context.Background(), &noIsolationDialect{fakeDialect{name: "fake"}}, &fakeConn{}, dialect.LevelSerializable)
	require.Error(t, err)
	assert.True(t, seam.IsUnsupported(err))
}

// noIsolationDialect hides the isolation methods of the embedded fake.
type noIsolationDialect struct {
	fakeDialect
}

func (d *noIsolationDialect) SetIsolationLevel() {} // shadows IsolationLeveler
