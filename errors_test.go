package seam_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam"
)

func TestUnsupported(t *testing.T) {
	t.Parallel()

	err := seam.Unsupportedf("table comments on %s", "sqlite")
	require.Error(t, err)
	assert.True(t, seam.IsUnsupported(err))
	assert.Contains(t, err.Error(), "table comments on sqlite")

	// Wrapping must survive further annotation.
	wrapped := fmt.Errorf("reflecting users: %w", err)
	assert.True(t, seam.IsUnsupported(wrapped))

	assert.False(t, seam.IsUnsupported(nil))
	assert.False(t, seam.IsUnsupported(errors.New("boom")))
}

func TestStatementError(t *testing.T) {
	t.Parallel()

	cause := errors.New("syntax error near SELEC")
	err := seam.NewStatementError("SELEC 1", []any{}, cause)
	assert.True(t, seam.IsStatementError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "SELEC 1")

	var se *seam.StatementError
	require.ErrorAs(t, fmt.Errorf("exec: %w", err), &se)
	assert.Equal(t, "SELEC 1", se.Statement)
}

func TestDisconnectError(t *testing.T) {
	t.Parallel()

	cause := errors.New("server closed the connection unexpectedly")
	err := seam.NewDisconnectError(cause)
	assert.True(t, seam.IsDisconnect(err))
	assert.ErrorIs(t, err, cause)

	// A disconnect wrapped in a statement error is still a disconnect.
	outer := seam.NewStatementError("SELECT 1", nil, err)
	assert.True(t, seam.IsDisconnect(outer))
	assert.True(t, seam.IsStatementError(outer))

	assert.False(t, seam.IsDisconnect(cause))
}

func TestArgumentError(t *testing.T) {
	t.Parallel()

	err := seam.NewArgumentError("isolation_level", errors.New("not in accepted values"))
	assert.True(t, seam.IsArgumentError(err))
	assert.Contains(t, err.Error(), `"isolation_level"`)

	anon := seam.NewArgumentError("", errors.New("unconsumed arguments"))
	assert.True(t, seam.IsArgumentError(anon))
	assert.NotContains(t, anon.Error(), `""`)
}
