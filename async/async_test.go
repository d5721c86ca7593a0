package async_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam/async"
)

// loopConn stands in for an event-loop-bound driver connection.
type loopConn struct {
	calls  []string
	closed bool
}

func TestRunAsyncReturnsValue(t *testing.T) {
	t.Parallel()

	raw := &loopConn{}
	conn := async.Adapt(raw)
	defer conn.Close(nil)

	assert.Same(t, raw, conn.DriverConnection())

	v, err := conn.RunAsync(func(driverConn any) (any, error) {
		driverConn.(*loopConn).calls = append(driverConn.(*loopConn).calls, "ping")
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, []string{"ping"}, raw.calls)
}

func TestRunAsyncPropagatesError(t *testing.T) {
	t.Parallel()

	conn := async.Adapt(&loopConn{})
	defer conn.Close(nil)

	boom := errors.New("driver exploded")
	v, err := conn.RunAsync(func(any) (any, error) {
		return nil, boom
	})
	assert.Nil(t, v)
	assert.Same(t, boom, err)
}

func TestRunAsyncPreservesOrder(t *testing.T) {
	t.Parallel()

	raw := &loopConn{}
	conn := async.Adapt(raw)
	defer conn.Close(nil)

	// Each call returns only after its operation resolved on the loop,
	// so the call order is the execution order.
	for _, name := range []string{"begin", "execute", "commit"} {
		name := name
		_, err := conn.RunAsync(func(driverConn any) (any, error) {
			driverConn.(*loopConn).calls = append(driverConn.(*loopConn).calls, name)
			return nil, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"begin", "execute", "commit"}, raw.calls)
}

func TestClose(t *testing.T) {
	t.Parallel()

	raw := &loopConn{}
	conn := async.Adapt(raw)

	require.NoError(t, conn.Close(func(driverConn any) (any, error) {
		driverConn.(*loopConn).closed = true
		return nil, nil
	}))
	assert.True(t, raw.closed)

	// Idempotent; later operations fail.
	require.NoError(t, conn.Close(nil))
	_, err := conn.RunAsync(func(any) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, async.ErrConnClosed)
}
