/*
errors.go - Centralized error types for the planning engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The key distinction in this engine is between per-certification issues
  (which are DATA, collected into the run report, never errors) and
  run-level failures (which abort or refuse the whole run).

ERROR CATEGORIES:
  1. Input errors - Invalid horizon, malformed dates (run refuses to start)
  2. Configuration errors - Unknown categories in strict mode
  3. Persistence errors - Bulk write rejected (nothing committed)
  4. Lifecycle errors - Illegal status transitions on stored entries

SEE ALSO:
  - allocator.go: Produces SkippedCertification / Warning values
  - store.go: Gateway contracts that surface these errors
*/
package planning

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidHorizon is returned when a planning run is requested with a
	// non-positive horizon. The run refuses to start.
	ErrInvalidHorizon = errors.New("invalid planning horizon")

	// ErrUnknownCategory is returned in strict mode when a due certification
	// references a category with no grace period entry.
	ErrUnknownCategory = errors.New("unknown certification category")

	// ErrPersistFailed is returned when the bulk write of plan entries is
	// rejected. Nothing from the run is considered committed.
	ErrPersistFailed = errors.New("plan persistence failed")

	// ErrPlanNotFound is returned when a referenced plan entry doesn't exist.
	ErrPlanNotFound = errors.New("plan entry not found")

	// ErrDuplicatePlan is returned when an entry would violate the
	// one-active-plan-per-due-certification uniqueness constraint.
	ErrDuplicatePlan = errors.New("duplicate plan entry")

	// ErrInvalidTransition is returned for illegal status changes.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDateOutsideWindow is returned when a reschedule would place the
	// planned date outside the entry's stored renewal window.
	ErrDateOutsideWindow = errors.New("planned date outside renewal window")
)

// =============================================================================
// SKIPS AND WARNINGS - Per-certification outcomes, not errors
// =============================================================================

// SkipReason is a structured reason code for an unplannable certification.
type SkipReason string

const (
	// SkipNoFeasiblePeriod means no roster period overlaps the renewal window.
	SkipNoFeasiblePeriod SkipReason = "no_feasible_period"
)

// SkippedCertification records one certification the allocator could not
// place. Skips are accumulated and reported alongside the successful
// entries; they never abort the run.
type SkippedCertification struct {
	Certification CertificationDue
	Reason        SkipReason
}

// Warning flags a non-fatal configuration issue observed during a run,
// e.g. a category with no grace period entry silently defaulting to zero.
type Warning struct {
	Code     string // e.g. "config_gap"
	PilotID  PilotID
	Category Category
	Message  string
}

const WarningConfigGap = "config_gap"

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PersistError is the run-level failure for a rejected bulk write. It
// carries every attempted entry so the caller can diagnose or retry.
type PersistError struct {
	Attempted []RenewalPlanEntry
	Cause     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("plan persistence failed for %d entries: %v", len(e.Attempted), e.Cause)
}

func (e *PersistError) Unwrap() error {
	return ErrPersistFailed
}

// TransitionError reports an illegal status change on a plan entry.
type TransitionError struct {
	EntryID string
	From    PlanStatus
	To      PlanStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition plan %s from %s to %s", e.EntryID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// UnknownCategoryError lists the categories that broke a strict-mode run.
type UnknownCategoryError struct {
	Categories []Category
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("no grace period configured for %d categories: %v", len(e.Categories), e.Categories)
}

func (e *UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidHorizon) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrDateOutsideWindow) ||
		errors.Is(err, ErrDuplicatePlan)
}

// IsNotFound returns true if the error indicates a missing entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound)
}
