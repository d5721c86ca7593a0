package dialect

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/seamdb/seam/driver"
)

// TwoPhaseOptions qualifies a two-phase commit or rollback.
type TwoPhaseOptions struct {
	// Prepared reports whether PrepareTwoPhase was called for the
	// transaction. Rollback must accept Prepared=false without a prior
	// prepare call.
	Prepared bool

	// Recover marks a recovery pass over transactions found by
	// RecoverTwoPhase after a crash.
	Recover bool
}

// TwoPhaser is implemented by dialects that support two-phase commit.
// The transaction id format is dialect-defined and opaque: an id
// produced by CreateXID round-trips through all five operations
// unchanged.
type TwoPhaser interface {
	// CreateXID returns a new opaque two-phase transaction id.
	CreateXID() string

	// BeginTwoPhase begins a two-phase transaction under the given id.
	BeginTwoPhase(ctx context.Context, conn driver.Conn, xid string) error

	// PrepareTwoPhase prepares the transaction for commit.
	PrepareTwoPhase(ctx context.Context, conn driver.Conn, xid string) error

	// CommitTwoPhase commits the transaction.
	CommitTwoPhase(ctx context.Context, conn driver.Conn, xid string, opts TwoPhaseOptions) error

	// RollbackTwoPhase rolls the transaction back.
	RollbackTwoPhase(ctx context.Context, conn driver.Conn, xid string, opts TwoPhaseOptions) error

	// RecoverTwoPhase lists the ids of prepared transactions pending on
	// the backend.
	RecoverTwoPhase(ctx context.Context, conn driver.Conn) ([]string, error)
}

// NewXID returns a random transaction id in the framework's default
// format. Dialects with backend-imposed id formats define their own.
func NewXID() string {
	return "_seam_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
