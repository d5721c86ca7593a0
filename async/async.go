// Package async bridges event-loop-bound database drivers into the
// synchronous connection protocol.
//
// Some drivers confine all connection operations to a single owning
// goroutine, typically one running an event loop around a network
// socket. AdaptedConnection owns that goroutine and funnels every
// operation through it, so synchronous caller code crosses into the
// driver at exactly one sanctioned point, RunAsync.
package async

import (
	"errors"
	"sync"
)

// ErrConnClosed is returned by RunAsync after Close.
var ErrConnClosed = errors.New("async: adapted connection is closed")

// Op is one operation against the raw driver connection. It runs on
// the loop goroutine and returns the operation result.
type Op func(driverConn any) (any, error)

type job struct {
	op   Op
	done chan result
}

type result struct {
	value any
	err   error
}

// AdaptedConnection presents a synchronous-looking connection while the
// real connection must be driven from its owning loop goroutine.
//
// Operations are serialized in submission order and each RunAsync call
// blocks until its operation resolved. Callers must not overlap two
// RunAsync calls against the same connection; like the underlying
// drivers, the adapter assumes single-flight use and does not lock
// around it. A hanging operation blocks the caller indefinitely;
// cancellation is not modeled.
type AdaptedConnection struct {
	driverConn any
	jobs       chan job

	closeOnce sync.Once
	closed    chan struct{}
}

// Adapt starts the loop goroutine owning driverConn and returns the
// adapter.
func Adapt(driverConn any) *AdaptedConnection {
	c := &AdaptedConnection{
		driverConn: driverConn,
		jobs:       make(chan job),
		closed:     make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *AdaptedConnection) loop() {
	for {
		select {
		case j := <-c.jobs:
			value, err := j.op(c.driverConn)
			j.done <- result{value: value, err: err}
		case <-c.closed:
			return
		}
	}
}

// DriverConnection returns the wrapped native connection object.
// Calling driver operations on it directly from outside the loop
// violates the driver's threading model; it is exposed for inspection
// and for dialects that know an operation is loop-safe.
func (c *AdaptedConnection) DriverConnection() any { return c.driverConn }

// RunAsync submits op to the loop goroutine and blocks until it
// resolves, returning exactly the operation's value and error. The
// operation completes, or fails, before RunAsync returns.
func (c *AdaptedConnection) RunAsync(op Op) (any, error) {
	j := job{op: op, done: make(chan result, 1)}
	select {
	case c.jobs <- j:
	case <-c.closed:
		return nil, ErrConnClosed
	}
	r := <-j.done
	return r.value, r.err
}

// Close stops the loop goroutine. If closeOp is non-nil it runs on the
// loop first, closing the raw driver connection. Close is idempotent;
// RunAsync calls after Close fail with ErrConnClosed.
func (c *AdaptedConnection) Close(closeOp Op) error {
	var err error
	c.closeOnce.Do(func() {
		if closeOp != nil {
			_, err = c.RunAsync(closeOp)
		}
		close(c.closed)
	})
	return err
}
