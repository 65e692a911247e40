/*
allocator.go - The core renewal planning algorithm

PURPOSE:
  Assigns each due certification to the least-loaded feasible roster
  period. For every certification the allocator:
  1. Computes the renewal window [expiry - grace, expiry]
  2. Enumerates roster periods overlapping that window
  3. Scores each candidate by current relative load (count / capacity)
  4. Picks the strictly lowest load, earliest period on ties
  5. Clamps the period's start date into the renewal window
  6. Emits a plan entry and bumps the in-run load counter

ORDERING:
  Certifications are processed in input order. Input order is the de facto
  tie-break when several certifications compete for the same least-loaded
  period; the loop stays O(n) over the input. SortByPriority opts into a
  stable pre-sort by descending urgency for callers that want
  urgency-first allocation.

FAILURE SEMANTICS:
  - A certification with no overlapping period is skipped and reported,
    never silently dropped. One bad certification cannot abort the batch.
  - The bulk write at the end is all-or-nothing; on rejection the run
    returns a PersistError carrying every attempted entry.
  - A non-positive horizon refuses the run before the loop starts.

ALLOCATION STATE:
  Load counters live in a single mutable map owned exclusively by one run,
  created empty at run start and discarded at run end. No state crosses
  runs. Counters are per (period, category), so a caller needing
  throughput could shard the input by category and merge only at the
  bulk-write step.

SEE ALSO:
  - calendar.go: Candidate enumeration
  - window.go: Window computation and clamping
  - priority.go: Urgency scoring
*/
package planning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ALLOCATION STATE - Scoped per-run load accumulator
// =============================================================================

// allocationState tracks renewals assigned so far in this run, keyed by
// period code then category. Owned by exactly one GeneratePlan call.
type allocationState map[string]map[Category]int

func (s allocationState) count(periodCode string, cat Category) int {
	return s[periodCode][cat]
}

func (s allocationState) increment(periodCode string, cat Category) {
	byCat := s[periodCode]
	if byCat == nil {
		byCat = make(map[Category]int)
		s[periodCode] = byCat
	}
	byCat[cat]++
}

// loadScore is currentCount / capacity. Zero capacity scores 1.0:
// maximally loaded rather than a division by zero, which naturally
// deprioritizes periods with no configured capacity for the category.
func loadScore(count, capacity int) decimal.Decimal {
	if capacity <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(count)).Div(decimal.NewFromInt(int64(capacity)))
}

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator runs renewal planning. All collaborators are injected; the
// zero Now defaults to the wall clock.
type Allocator struct {
	Calendar *RosterCalendar
	Windows  WindowCalculator
	Certs    CertificationSource
	Capacity CapacityProvider
	Plans    PlanStore
	Audit    AuditLog // optional

	// Now supplies the run's clock for priority scoring. Tests inject a
	// fixed date for determinism.
	Now func() TimePoint

	// SortByPriority pre-sorts the input by descending urgency score
	// (stable) before allocation. Off by default: the baseline algorithm
	// preserves input order.
	SortByPriority bool

	// StrictCategories refuses the run when any due certification's
	// category has no grace period entry. Off by default: unknown
	// categories get a zero grace period and a config_gap warning.
	StrictCategories bool
}

// PlanRequest describes one planning run.
type PlanRequest struct {
	HorizonMonths  int
	CategoryFilter Category // empty = all categories
	PilotFilter    PilotID  // empty = all pilots
	ActorID        string   // recorded in the audit trail
}

// PlanResult is the full outcome of a run: every due certification appears
// exactly once, either in Entries or in Skipped.
type PlanResult struct {
	Entries     []RenewalPlanEntry
	Skipped     []SkippedCertification
	Warnings    []Warning
	GeneratedAt TimePoint
	ByCategory  map[Category]int
	ByPeriod    map[string]int
}

// TotalPlanned returns the number of emitted entries.
func (r *PlanResult) TotalPlanned() int { return len(r.Entries) }

// GeneratePlan executes one planning run: fetch inputs once, allocate
// sequentially, bulk-persist at the end.
func (a *Allocator) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if req.HorizonMonths <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d months", ErrInvalidHorizon, req.HorizonMonths)
	}

	now := a.now()
	cutoff := now.AddMonths(req.HorizonMonths)

	// Both read interfaces are called exactly once, before the loop.
	due, err := a.Certs.DueWithin(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading due certifications: %w", err)
	}
	capacities, err := a.Capacity.Capacities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading roster capacities: %w", err)
	}

	due = filterCerts(due, req)

	if a.StrictCategories {
		if unknown := a.unknownCategories(due); len(unknown) > 0 {
			return nil, &UnknownCategoryError{Categories: unknown}
		}
	}

	if a.SortByPriority {
		sort.SliceStable(due, func(i, j int) bool {
			return PriorityScore(due[i].ExpiresAt, now) > PriorityScore(due[j].ExpiresAt, now)
		})
	}

	result := &PlanResult{
		GeneratedAt: now,
		ByCategory:  make(map[Category]int),
		ByPeriod:    make(map[string]int),
	}
	state := make(allocationState)
	createdAt := time.Now().UTC()

	for _, cert := range due {
		if !a.Windows.Grace.Known(cert.Category) {
			result.Warnings = append(result.Warnings, Warning{
				Code:     WarningConfigGap,
				PilotID:  cert.PilotID,
				Category: cert.Category,
				Message:  "no grace period configured, defaulting to 0 days",
			})
		}

		window := a.Windows.Compute(cert.ExpiresAt, cert.Category)
		candidates := a.Calendar.PeriodsOverlapping(window.Start, window.End)
		if len(candidates) == 0 {
			result.Skipped = append(result.Skipped, SkippedCertification{
				Certification: cert,
				Reason:        SkipNoFeasiblePeriod,
			})
			continue
		}

		selected := pickLeastLoaded(candidates, capacities, state, cert.Category)

		// Clamp even when the period's start already sits inside the
		// window; a period can start before the grace window opens or
		// run past the expiry date.
		planned := window.Clamp(selected.Start)

		entry := RenewalPlanEntry{
			ID:          uuid.NewString(),
			PilotID:     cert.PilotID,
			Category:    cert.Category,
			ExpiresAt:   cert.ExpiresAt,
			PlannedAt:   planned,
			PeriodCode:  selected.Code,
			WindowStart: window.Start,
			WindowEnd:   window.End,
			Status:      StatusPlanned,
			Priority:    PriorityScore(cert.ExpiresAt, now),
			CreatedAt:   createdAt,
		}
		result.Entries = append(result.Entries, entry)
		result.ByCategory[cert.Category]++
		result.ByPeriod[selected.Code]++
		state.increment(selected.Code, cert.Category)
	}

	if len(result.Entries) > 0 {
		if err := a.Plans.BulkInsert(ctx, result.Entries); err != nil {
			return nil, &PersistError{Attempted: result.Entries, Cause: err}
		}
	}

	a.audit(ctx, req.ActorID, AuditPlanGenerated, map[string]any{
		"horizon_months": req.HorizonMonths,
		"total_plans":    len(result.Entries),
		"skipped":        len(result.Skipped),
	})

	return result, nil
}

// pickLeastLoaded selects the candidate with the strictly lowest load
// score. Candidates arrive chronologically ordered, so keeping the first
// minimum makes ties resolve to the earliest period.
func pickLeastLoaded(candidates []RosterPeriod, capacities map[string]CapacityMap, state allocationState, cat Category) RosterPeriod {
	best := candidates[0]
	bestLoad := loadScore(state.count(best.Code, cat), capacities[best.Code][cat])

	for _, p := range candidates[1:] {
		load := loadScore(state.count(p.Code, cat), capacities[p.Code][cat])
		if load.LessThan(bestLoad) {
			best = p
			bestLoad = load
		}
	}
	return best
}

func filterCerts(due []CertificationDue, req PlanRequest) []CertificationDue {
	if req.CategoryFilter == "" && req.PilotFilter == "" {
		return due
	}
	filtered := due[:0:0]
	for _, c := range due {
		if req.CategoryFilter != "" && c.Category != req.CategoryFilter {
			continue
		}
		if req.PilotFilter != "" && c.PilotID != req.PilotFilter {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

func (a *Allocator) unknownCategories(due []CertificationDue) []Category {
	seen := make(map[Category]bool)
	var unknown []Category
	for _, c := range due {
		if !seen[c.Category] && !a.Windows.Grace.Known(c.Category) {
			seen[c.Category] = true
			unknown = append(unknown, c.Category)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return unknown
}

func (a *Allocator) now() TimePoint {
	if a.Now != nil {
		return a.Now()
	}
	return Today()
}

func (a *Allocator) audit(ctx context.Context, actor string, action AuditAction, payload map[string]any) {
	if a.Audit == nil {
		return
	}
	// Audit append failures don't invalidate an already-persisted run.
	_ = a.Audit.Append(ctx, AuditEntry{
		ID:      uuid.NewString(),
		At:      time.Now().UTC(),
		ActorID: actor,
		Action:  action,
		Payload: payload,
	})
}
