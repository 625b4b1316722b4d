package store

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
)

// Caller-facing error kinds. Handlers map each kind to a stable response
// code, so none of these may be collapsed into a generic failure.
var (
	// ErrBookNotFound means the book identifier is unknown (or deleted).
	ErrBookNotFound = errors.New("book not found")

	// ErrLoanNotFound means the loan identifier is unknown.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrBookUnavailable means no units were free at decrement time.
	ErrBookUnavailable = errors.New("book not available")

	// ErrForbidden means the loan belongs to a different user.
	ErrForbidden = errors.New("loan belongs to another user")

	// ErrAlreadyReturned means the loan was already closed.
	ErrAlreadyReturned = errors.New("loan already returned")

	// ErrConflict means a catalog write clashes with existing state: an edit
	// that would leave fewer copies than there are active loans, or a
	// duplicate ISBN.
	ErrConflict = errors.New("catalog conflict")

	// ErrInvariant means the available/total accounting broke. It indicates
	// a bug, not a user error, and is never silently corrected.
	ErrInvariant = errors.New("inventory accounting invariant violated")

	// ErrInfrastructure marks persistence-layer failures (connection loss,
	// timeouts) so callers can retry those and only those.
	ErrInfrastructure = errors.New("storage unavailable")
)

// infraErr tags a driver or connection failure with ErrInfrastructure,
// keeping the underlying error in the chain.
func infraErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInfrastructure, err)
}

// SQLITE_CONSTRAINT primary result code; extended constraint codes carry it
// in their low byte.
const sqliteConstraint = 19

// catalogErr classifies a catalog write failure. A constraint violation is a
// deterministic conflict the client must resolve, not an infrastructure
// failure to retry.
func catalogErr(op string, err error) error {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) && sqErr.Code()&0xff == sqliteConstraint {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return infraErr(op, err)
}
