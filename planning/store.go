/*
store.go - Gateway interfaces between the engine and its collaborators

PURPOSE:
  Defines the read and write boundaries of the planning engine. The engine
  never touches a database directly: it pulls due certifications and
  capacity data through read interfaces exactly once per run, and pushes
  the resulting plan entries through the write interface exactly once, at
  the very end.

KEY INTERFACES:
  CertificationSource: Due certifications within a horizon (read)
  CapacityProvider:    Per-period, per-category renewal limits (read)
  PlanStore:           Bulk insert, queries, lifecycle, clear (write)
  AuditLog:            Append-only record of who did what when

ATOMICITY CONTRACT:
  BulkInsert is all-or-nothing across the batch. If any row is rejected
  (e.g. by the active-plan uniqueness constraint), no row from the batch
  may remain committed. The allocator relies on this and does not attempt
  row-level recovery.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - planning/store/memory.go: In-memory for testing

SEE ALSO:
  - allocator.go: The single consumer of these interfaces
*/
package planning

import (
	"context"
	"time"
)

// =============================================================================
// READ INTERFACES
// =============================================================================

// CertificationSource supplies the certifications due for renewal.
// Implementations define the input ordering; the allocator preserves it
// (input order is the de facto tie-break, see allocator.go).
type CertificationSource interface {
	// DueWithin returns certifications whose expiry falls on or before cutoff.
	DueWithin(ctx context.Context, cutoff TimePoint) ([]CertificationDue, error)
}

// CapacityProvider supplies configured renewal capacity per roster period.
type CapacityProvider interface {
	// CapacityFor returns the per-category capacity for one period.
	// An unconfigured period returns an empty map, not an error.
	CapacityFor(ctx context.Context, periodCode string) (CapacityMap, error)

	// Capacities returns capacity for all configured periods, keyed by code.
	Capacities(ctx context.Context) (map[string]CapacityMap, error)
}

// =============================================================================
// WRITE INTERFACE
// =============================================================================

// PlanFilter narrows plan entry queries. Zero values mean "no filter".
type PlanFilter struct {
	PeriodCode string
	PilotID    PilotID
	Category   Category
	Status     PlanStatus
}

// PlanStore persists renewal plan entries.
type PlanStore interface {
	// BulkInsert writes all entries atomically. Either every entry commits
	// or none do; on failure the caller wraps the batch in a PersistError.
	BulkInsert(ctx context.Context, entries []RenewalPlanEntry) error

	// List returns entries matching the filter, ordered by planned date.
	List(ctx context.Context, filter PlanFilter) ([]RenewalPlanEntry, error)

	// Get returns one entry by ID, or ErrPlanNotFound.
	Get(ctx context.Context, id string) (*RenewalPlanEntry, error)

	// UpdateStatus applies a lifecycle transition. A non-nil plannedAt
	// moves the planned date (reschedule) and must stay inside the entry's
	// stored renewal window.
	UpdateStatus(ctx context.Context, id string, status PlanStatus, plannedAt *TimePoint) error

	// ClearAll deletes every plan entry, returning the number removed.
	// Destructive; callers audit it.
	ClearAll(ctx context.Context) (int, error)
}

// =============================================================================
// AUDIT LOG
// =============================================================================

type AuditAction string

const (
	AuditPlanGenerated AuditAction = "plan_generated"
	AuditPlansCleared  AuditAction = "plans_cleared"
	AuditStatusChanged AuditAction = "status_changed"
)

// AuditEntry records who did what when. Append-only.
type AuditEntry struct {
	ID      string
	At      time.Time
	ActorID string
	Action  AuditAction
	Payload map[string]any
}

type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Entries(ctx context.Context, limit int) ([]AuditEntry, error)
}
