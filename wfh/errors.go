/*
errors.go - Error taxonomy for the WFH engine

ERROR CATEGORIES:
  1. Validation    - malformed request, refused before touching the store
  2. Conflict      - duplicate or partially duplicate booking
  3. Authorization - acting manager is not the staff member's manager
  4. Policy window - action requested outside its allowed time window
  5. Not found     - nothing matches the action
  6. Store         - the unit of work failed and was rolled back (retryable)
  7. Unexpected    - anything else, surfaced as-is

Categories 2-5 are normally delivered as typed outcomes (see outcome.go),
not errors. Result.Err() converts them when a caller wants an error.

USAGE:
  if errors.Is(err, wfh.ErrStore) {
      // safe to retry the whole request
  }

SEE ALSO:
  - outcome.go: Outcome tags and Result
*/
package wfh

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation        = errors.New("invalid request")
	ErrConflict          = errors.New("booking conflicts with an existing arrangement")
	ErrWrongManager      = errors.New("acting manager is not the reporting manager")
	ErrOutsideWindow     = errors.New("outside the allowed time window")
	ErrNotFound          = errors.New("no matching booking")
	ErrStore             = errors.New("store failure")
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrSlotTaken is returned by stores when the live-slot uniqueness
	// constraint rejects a write. The check-then-create race lost.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrEmployeeNotFound is returned by a Directory for unknown staff.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StoreError marks a failed unit of work.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

type TransitionError struct {
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a booking in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the whole request may succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStore) && !errors.Is(err, ErrSlotTaken)
}

// IsClientError returns true if the error is due to the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrWrongManager) ||
		errors.Is(err, ErrOutsideWindow)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmployeeNotFound)
}
