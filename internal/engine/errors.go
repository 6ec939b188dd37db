package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes wrapped by store and ledger errors.
var (
	ErrLotNotFound    = errors.New("lot not found")
	ErrJobNotFound    = errors.New("slitting job not found")
	ErrJobExists      = errors.New("slitting job already exists")
	ErrMasterNotFound = errors.New("roll master not found")
)

// ValidationError reports input that blocks a commit. Messages are meant to be
// shown to the user verbatim.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// LedgerIntegrityError is a fatal inconsistency between a job and the lot
// stores. The transaction that raised it has been rolled back.
type LedgerIntegrityError struct {
	Op     string // "commit" or "reverse"
	JobID  string
	LotID  string
	Reason string
	Err    error
}

func (e *LedgerIntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ledger integrity: %s", e.Op)
	if e.JobID != "" {
		fmt.Fprintf(&b, " job=%s", e.JobID)
	}
	if e.LotID != "" {
		fmt.Fprintf(&b, " lot=%s", e.LotID)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LedgerIntegrityError) Unwrap() error {
	return e.Err
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsLedgerIntegrityError returns true if err is or wraps a LedgerIntegrityError.
func IsLedgerIntegrityError(err error) bool {
	var le *LedgerIntegrityError
	return errors.As(err, &le)
}

func newValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}
