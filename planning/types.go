/*
Package planning provides the certification renewal planning engine.

PURPOSE:
  This package contains the core algorithm that assigns each pilot's
  expiring certification to a future roster period, subject to grace-period
  feasibility windows and per-period, per-category capacity limits, while
  spreading renewals evenly across periods.

KEY CONCEPTS IN THIS FILE (types.go):
  - CertificationDue: An expiring certification (input to a planning run)
  - RenewalPlanEntry: A planned renewal (output of a planning run)
  - PlanStatus: Lifecycle of a plan entry (planned -> confirmed -> ...)
  - Pilot/Category IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Determinism: A planning run is a pure function of its inputs
  2. Precision: Uses decimal.Decimal for load ratios and utilization
  3. Type Safety: Strong typing for pilot and category identifiers
  4. Auditability: Every run and mutation leaves an audit entry

USAGE:
  cert := planning.CertificationDue{
      PilotID:   "plt-104",
      Category:  "Medical Certificate",
      ExpiresAt: planning.NewTimePoint(2026, time.March, 15),
  }

SEE ALSO:
  - allocator.go: The planning run itself
  - calendar.go: Roster period enumeration
  - window.go: Renewal window computation
*/
package planning

import (
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PilotID string

// Category is a certification category (e.g. "Medical Certificate").
// Categories are free-text keys into the grace period table; see
// GraceTable.Known for auditing unknown categories.
type Category string

// =============================================================================
// CERTIFICATION DUE - Immutable input to a planning run
// =============================================================================

type CertificationDue struct {
	PilotID   PilotID
	Category  Category
	ExpiresAt TimePoint
}

// =============================================================================
// PLAN STATUS - Lifecycle of a plan entry
// =============================================================================

type PlanStatus string

const (
	StatusPlanned     PlanStatus = "planned"
	StatusConfirmed   PlanStatus = "confirmed"
	StatusCompleted   PlanStatus = "completed"
	StatusCancelled   PlanStatus = "cancelled"
	StatusRescheduled PlanStatus = "rescheduled"
)

// allowedTransitions maps a status to the statuses it may move to.
// Completed and cancelled are terminal.
var allowedTransitions = map[PlanStatus][]PlanStatus{
	StatusPlanned:     {StatusConfirmed, StatusCancelled, StatusRescheduled},
	StatusConfirmed:   {StatusCompleted, StatusCancelled, StatusRescheduled},
	StatusRescheduled: {StatusConfirmed, StatusCancelled, StatusRescheduled},
}

// CanTransitionTo reports whether a plan entry may move from s to next.
func (s PlanStatus) CanTransitionTo(next PlanStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status value.
func (s PlanStatus) IsValid() bool {
	switch s {
	case StatusPlanned, StatusConfirmed, StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// =============================================================================
// RENEWAL PLAN ENTRY - The core output entity
// =============================================================================

// RenewalPlanEntry is one planned certification renewal.
//
// Invariants enforced at creation:
//   - WindowStart <= PlannedAt <= WindowEnd
//   - PlannedAt <= ExpiresAt (WindowEnd equals ExpiresAt)
//   - (PilotID, Category, ExpiresAt) is unique among active entries
type RenewalPlanEntry struct {
	ID          string
	PilotID     PilotID
	Category    Category
	ExpiresAt   TimePoint // original expiry of the certification
	PlannedAt   TimePoint // clamped into [WindowStart, WindowEnd]
	PeriodCode  string
	WindowStart TimePoint
	WindowEnd   TimePoint
	Status      PlanStatus
	Priority    int // urgency score 0-10, see priority.go
	CreatedAt   time.Time
}

// Window returns the entry's renewal window as stored at creation time.
func (e RenewalPlanEntry) Window() RenewalWindow {
	return RenewalWindow{Start: e.WindowStart, End: e.WindowEnd}
}

// =============================================================================
// CAPACITY - Per-period renewal limits
// =============================================================================

// CapacityMap holds the maximum renewals per category for one roster period.
// A missing category means zero capacity.
type CapacityMap map[Category]int

// Total sums capacity across all categories.
func (c CapacityMap) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
