/*
allocator_test.go - Behavioral tests for the planning run

ORGANIZATION:
  1. Window and clamp invariants on emitted entries
  2. Load balancing and tie-breaking
  3. Capacity edge cases (zero capacity, exhaustion)
  4. Skip reporting and run-level failure semantics
  5. Ordering options (input order vs priority-first)

Each test has GIVEN/WHEN/THEN comments explaining the scenario.
*/
package planning_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skyfleet/renewal-engine/planning"
	"github.com/skyfleet/renewal-engine/planning/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// fixedNow keeps every run deterministic.
var fixedNow = planning.NewTimePoint(2025, time.January, 1)

func newTestAllocator(mem *store.Memory) *planning.Allocator {
	return &planning.Allocator{
		Calendar: testCalendar(), // 13 periods from 2025-01-06
		Windows:  planning.WindowCalculator{Grace: testGrace()},
		Certs:    mem,
		Capacity: mem,
		Plans:    mem,
		Audit:    mem,
		Now:      func() planning.TimePoint { return fixedNow },
	}
}

func generate(t *testing.T, alloc *planning.Allocator, months int) *planning.PlanResult {
	t.Helper()
	result, err := alloc.GeneratePlan(context.Background(), planning.PlanRequest{
		HorizonMonths: months,
		ActorID:       "test",
	})
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	return result
}

// =============================================================================
// WINDOW AND CLAMP INVARIANTS
// =============================================================================

func TestGeneratePlan_PlannedDateAlwaysInsideWindow(t *testing.T) {
	// GIVEN: Certifications across categories with varying grace periods
	// WHEN: A plan is generated
	// THEN: Every entry satisfies WindowStart <= PlannedAt <= WindowEnd
	//       and PlannedAt <= ExpiresAt

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{PilotID: "p1", Category: "Line Check", ExpiresAt: date(2025, time.June, 15)})
	mem.SeedCertification(planning.CertificationDue{PilotID: "p2", Category: "Medical Certificate", ExpiresAt: date(2025, time.April, 1)})
	mem.SeedCertification(planning.CertificationDue{PilotID: "p3", Category: "ID Cards", ExpiresAt: date(2025, time.March, 10)})
	for _, p := range testCalendar().Periods() {
		mem.SeedCapacity(p.Code, "Line Check", 5)
		mem.SeedCapacity(p.Code, "Medical Certificate", 5)
		mem.SeedCapacity(p.Code, "ID Cards", 5)
	}

	result := generate(t, newTestAllocator(mem), 12)

	if len(result.Entries) != 3 {
		t.Fatalf("planned %d entries, want 3 (skips: %v)", len(result.Entries), result.Skipped)
	}
	for _, e := range result.Entries {
		if e.PlannedAt.Before(e.WindowStart) || e.PlannedAt.After(e.WindowEnd) {
			t.Errorf("pilot %s: planned %s outside window [%s, %s]",
				e.PilotID, e.PlannedAt, e.WindowStart, e.WindowEnd)
		}
		if e.PlannedAt.After(e.ExpiresAt) {
			t.Errorf("pilot %s: planned %s after expiry %s", e.PilotID, e.PlannedAt, e.ExpiresAt)
		}
	}
}

func TestGeneratePlan_ClampsPeriodStartIntoWindow(t *testing.T) {
	// GIVEN: A certification whose selected period starts before the
	//        grace window opens (period start 2025-02-03, window opens
	//        2025-02-05)
	// WHEN: The plan is generated
	// THEN: The planned date is clamped forward to the window start, not
	//       left at the period start

	mem := store.NewMemory()
	// Medical Certificate has 45 days grace: window [2025-01-14, 2025-02-28].
	// RP1 starts 2025-01-06, before the window opens.
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "p1", Category: "Medical Certificate", ExpiresAt: date(2025, time.February, 28),
	})
	// Only RP1 has capacity; RP2 has none, so RP1 wins on load.
	mem.SeedCapacity("RP1/2025", "Medical Certificate", 5)

	result := generate(t, newTestAllocator(mem), 6)

	if len(result.Entries) != 1 {
		t.Fatalf("planned %d entries, want 1", len(result.Entries))
	}
	e := result.Entries[0]
	if e.PeriodCode != "RP1/2025" {
		t.Fatalf("selected %s, want RP1/2025", e.PeriodCode)
	}
	if !e.PlannedAt.Equal(date(2025, time.January, 14)) {
		t.Errorf("planned date = %s, want clamped window start 2025-01-14", e.PlannedAt)
	}
}

func TestGeneratePlan_SingleDayWindowPlansExactlyOnExpiry(t *testing.T) {
	// GIVEN: A zero-grace certification (ID Cards) expiring 2025-01-10
	// THEN: The single-day window still finds its period and the planned
	//       date is exactly the expiry date

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "p1", Category: "ID Cards", ExpiresAt: date(2025, time.January, 10),
	})
	mem.SeedCapacity("RP1/2025", "ID Cards", 1)

	result := generate(t, newTestAllocator(mem), 3)

	if len(result.Entries) != 1 {
		t.Fatalf("planned %d entries, want 1 (skips: %v)", len(result.Entries), result.Skipped)
	}
	if got := result.Entries[0].PlannedAt; !got.Equal(date(2025, time.January, 10)) {
		t.Errorf("planned date = %s, want exactly 2025-01-10", got)
	}
}

// =============================================================================
// LOAD BALANCING
// =============================================================================

func TestGeneratePlan_SpreadsLoadAcrossPeriods(t *testing.T) {
	// GIVEN: Two same-category certifications whose windows span RP1 and
	//        RP2, each period with capacity 1
	// WHEN: The plan is generated
	// THEN: The first takes the earliest period (tie at load 0); the
	//       second sees RP1 at load 1.0 and must take RP2

	mem := store.NewMemory()
	for _, pilot := range []planning.PilotID{"p1", "p2"} {
		mem.SeedCertification(planning.CertificationDue{
			PilotID: pilot, Category: "Line Check", ExpiresAt: date(2025, time.March, 1),
		})
	}
	mem.SeedCapacity("RP1/2025", "Line Check", 1)
	mem.SeedCapacity("RP2/2025", "Line Check", 1)

	result := generate(t, newTestAllocator(mem), 6)

	if len(result.Entries) != 2 {
		t.Fatalf("planned %d entries, want 2", len(result.Entries))
	}
	if got := result.Entries[0].PeriodCode; got != "RP1/2025" {
		t.Errorf("first assignment went to %s, want RP1/2025 (earliest on tie)", got)
	}
	if got := result.Entries[1].PeriodCode; got != "RP2/2025" {
		t.Errorf("second assignment went to %s, want RP2/2025 (lower load)", got)
	}
}

func TestGeneratePlan_FallsBackToFullPeriodWhenAllLoaded(t *testing.T) {
	// GIVEN: Three certifications, two periods, capacity 1 each
	// THEN: The third falls back to the earliest period at load 1.0;
	//       a full period is relatively worse, never ineligible

	mem := store.NewMemory()
	for _, pilot := range []planning.PilotID{"p1", "p2", "p3"} {
		mem.SeedCertification(planning.CertificationDue{
			PilotID: pilot, Category: "Line Check", ExpiresAt: date(2025, time.March, 1),
		})
	}
	mem.SeedCapacity("RP1/2025", "Line Check", 1)
	mem.SeedCapacity("RP2/2025", "Line Check", 1)

	result := generate(t, newTestAllocator(mem), 6)

	if len(result.Entries) != 3 {
		t.Fatalf("planned %d entries, want 3", len(result.Entries))
	}
	if got := result.Entries[2].PeriodCode; got != "RP1/2025" {
		t.Errorf("overflow assignment went to %s, want RP1/2025 (earliest at equal load)", got)
	}
}

func TestGeneratePlan_LoadCountsAreIsolatedPerCategory(t *testing.T) {
	// GIVEN: Two certifications in different categories targeting the
	//        same period with capacity 1 each
	// THEN: Both land in that period; load is tracked per (period, category)

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{PilotID: "p1", Category: "ID Cards", ExpiresAt: date(2025, time.January, 20)})
	mem.SeedCertification(planning.CertificationDue{PilotID: "p2", Category: "Medical Certificate", ExpiresAt: date(2025, time.January, 20)})
	mem.SeedCapacity("RP1/2025", "ID Cards", 1)
	mem.SeedCapacity("RP1/2025", "Medical Certificate", 1)

	result := generate(t, newTestAllocator(mem), 3)

	if len(result.Entries) != 2 {
		t.Fatalf("planned %d entries, want 2 (skips: %v)", len(result.Entries), result.Skipped)
	}
	for _, e := range result.Entries {
		if e.PeriodCode != "RP1/2025" {
			t.Errorf("pilot %s landed in %s, want RP1/2025", e.PilotID, e.PeriodCode)
		}
	}
}

// =============================================================================
// CAPACITY EDGE CASES
// =============================================================================

func TestGeneratePlan_ZeroCapacityEverywhereStillPlans(t *testing.T) {
	// GIVEN: No capacity configured for any candidate period
	// WHEN: The plan is generated
	// THEN: Every candidate scores load 1.0, no division by zero, and a
	//       plan is still produced in the earliest period

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "p1", Category: "Line Check", ExpiresAt: date(2025, time.March, 1),
	})
	// Deliberately no SeedCapacity calls.

	result := generate(t, newTestAllocator(mem), 6)

	if len(result.Entries) != 1 {
		t.Fatalf("planned %d entries, want 1", len(result.Entries))
	}
	if got := result.Entries[0].PeriodCode; got != "RP1/2025" {
		t.Errorf("assignment went to %s, want earliest RP1/2025", got)
	}
}

// =============================================================================
// SKIP REPORTING
// =============================================================================

func TestGeneratePlan_SkipsCertWithNoFeasiblePeriod(t *testing.T) {
	// GIVEN: One plannable certification and one expiring far beyond the
	//        registered calendar
	// WHEN: The plan is generated
	// THEN: The run completes; the unplannable certification appears in
	//       the skip report with a structured reason, the other is planned

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "p1", Category: "ID Cards", ExpiresAt: date(2025, time.February, 1),
	})
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "p2", Category: "ID Cards", ExpiresAt: date(2027, time.June, 1),
	})
	mem.SeedCapacity("RP1/2025", "ID Cards", 5)

	result := generate(t, newTestAllocator(mem), 36)

	if len(result.Entries) != 1 {
		t.Fatalf("planned %d entries, want 1", len(result.Entries))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("skipped %d, want 1", len(result.Skipped))
	}
	skip := result.Skipped[0]
	if skip.Certification.PilotID != "p2" {
		t.Errorf("skipped pilot %s, want p2", skip.Certification.PilotID)
	}
	if skip.Reason != planning.SkipNoFeasiblePeriod {
		t.Errorf("skip reason = %s, want %s", skip.Reason, planning.SkipNoFeasiblePeriod)
	}
}

func TestGeneratePlan_EveryCertPlannedOrSkippedExactlyOnce(t *testing.T) {
	// GIVEN: A mix of plannable and unplannable certifications
	// THEN: Each appears exactly once across entries and skips

	mem := store.NewMemory()
	certs := []planning.CertificationDue{
		{PilotID: "p1", Category: "Line Check", ExpiresAt: date(2025, time.April, 1)},
		{PilotID: "p2", Category: "Line Check", ExpiresAt: date(2027, time.April, 1)}, // beyond calendar
		{PilotID: "p3", Category: "Medical Certificate", ExpiresAt: date(2025, time.July, 1)},
	}
	for _, c := range certs {
		mem.SeedCertification(c)
	}

	result := generate(t, newTestAllocator(mem), 36)

	seen := map[planning.PilotID]int{}
	for _, e := range result.Entries {
		seen[e.PilotID]++
	}
	for _, s := range result.Skipped {
		seen[s.Certification.PilotID]++
	}
	for _, c := range certs {
		if seen[c.PilotID] != 1 {
			t.Errorf("pilot %s accounted for %d times, want exactly 1", c.PilotID, seen[c.PilotID])
		}
	}
}

// =============================================================================
// RUN-LEVEL FAILURES
// =============================================================================

func TestGeneratePlan_RejectsNonPositiveHorizon(t *testing.T) {
	mem := store.NewMemory()
	alloc := newTestAllocator(mem)

	for _, months := range []int{0, -3} {
		_, err := alloc.GeneratePlan(context.Background(), planning.PlanRequest{HorizonMonths: months})
		if !errors.Is(err, planning.ErrInvalidHorizon) {
			t.Errorf("horizon %d: err = %v, want ErrInvalidHorizon", months, err)
		}
	}
}

func TestGeneratePlan_PersistFailureCarriesAttemptedEntries(t *testing.T) {
	// GIVEN: A plan entry already persisted for the same due certification
	// WHEN: A second run attempts to bulk-write a duplicate
	// THEN: The run fails with a PersistError carrying the attempted batch

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "p1", Category: "ID Cards", ExpiresAt: date(2025, time.February, 1),
	})
	mem.SeedCapacity("RP1/2025", "ID Cards", 5)

	alloc := newTestAllocator(mem)
	generate(t, alloc, 6) // first run commits

	_, err := alloc.GeneratePlan(context.Background(), planning.PlanRequest{HorizonMonths: 6})
	if !errors.Is(err, planning.ErrPersistFailed) {
		t.Fatalf("err = %v, want ErrPersistFailed", err)
	}

	var pe *planning.PersistError
	if !errors.As(err, &pe) {
		t.Fatal("error is not a *PersistError")
	}
	if len(pe.Attempted) != 1 {
		t.Errorf("PersistError carries %d entries, want 1", len(pe.Attempted))
	}
}

func TestGeneratePlan_StrictModeRefusesUnknownCategories(t *testing.T) {
	// GIVEN: StrictCategories enabled and a certification with no grace entry
	// THEN: The run refuses to start and names the category

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "p1", Category: "Jetpack Rating", ExpiresAt: date(2025, time.March, 1),
	})

	alloc := newTestAllocator(mem)
	alloc.StrictCategories = true

	_, err := alloc.GeneratePlan(context.Background(), planning.PlanRequest{HorizonMonths: 6})
	if !errors.Is(err, planning.ErrUnknownCategory) {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}

	var uce *planning.UnknownCategoryError
	if !errors.As(err, &uce) || len(uce.Categories) != 1 || uce.Categories[0] != "Jetpack Rating" {
		t.Errorf("error does not name the offending category: %v", err)
	}
}

func TestGeneratePlan_LenientModeWarnsOnUnknownCategories(t *testing.T) {
	// GIVEN: Default (lenient) mode and an unknown category
	// THEN: The certification is planned with zero grace and a config_gap
	//       warning flags it

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "p1", Category: "Jetpack Rating", ExpiresAt: date(2025, time.March, 1),
	})

	result := generate(t, newTestAllocator(mem), 6)

	if len(result.Entries) != 1 {
		t.Fatalf("planned %d entries, want 1", len(result.Entries))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != planning.WarningConfigGap {
		t.Fatalf("warnings = %v, want one config_gap", result.Warnings)
	}
	// Zero grace: planned exactly on expiry.
	if got := result.Entries[0].PlannedAt; !got.Equal(date(2025, time.March, 1)) {
		t.Errorf("planned date = %s, want the expiry date", got)
	}
}

// =============================================================================
// ORDERING
// =============================================================================

func TestGeneratePlan_DeterministicAcrossRuns(t *testing.T) {
	// GIVEN: Identical inputs in identical order
	// THEN: Two runs produce identical assignments

	build := func() *store.Memory {
		mem := store.NewMemory()
		for i, pilot := range []planning.PilotID{"p1", "p2", "p3", "p4"} {
			mem.SeedCertification(planning.CertificationDue{
				PilotID: pilot, Category: "Line Check", ExpiresAt: date(2025, time.March, 1+i),
			})
		}
		mem.SeedCapacity("RP1/2025", "Line Check", 2)
		mem.SeedCapacity("RP2/2025", "Line Check", 2)
		return mem
	}

	first := generate(t, newTestAllocator(build()), 6)
	second := generate(t, newTestAllocator(build()), 6)

	if len(first.Entries) != len(second.Entries) {
		t.Fatalf("run sizes differ: %d vs %d", len(first.Entries), len(second.Entries))
	}
	for i := range first.Entries {
		a, b := first.Entries[i], second.Entries[i]
		if a.PilotID != b.PilotID || a.PeriodCode != b.PeriodCode || !a.PlannedAt.Equal(b.PlannedAt) {
			t.Errorf("entry %d differs: %s/%s/%s vs %s/%s/%s",
				i, a.PilotID, a.PeriodCode, a.PlannedAt, b.PilotID, b.PeriodCode, b.PlannedAt)
		}
	}
}

func TestGeneratePlan_SortByPriorityAllocatesUrgentFirst(t *testing.T) {
	// GIVEN: A distant expiry seeded before an urgent one, one period
	//        with capacity 1 covering both windows
	// WHEN: SortByPriority is enabled
	// THEN: The urgent certification is allocated first and wins the
	//       uncontended capacity

	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "distant", Category: "ID Cards", ExpiresAt: date(2025, time.February, 1),
	})
	mem.SeedCertification(planning.CertificationDue{
		PilotID: "urgent", Category: "ID Cards", ExpiresAt: date(2025, time.January, 8),
	})
	mem.SeedCapacity("RP1/2025", "ID Cards", 1)

	alloc := newTestAllocator(mem)
	alloc.SortByPriority = true

	result := generate(t, alloc, 2)

	if len(result.Entries) != 2 {
		t.Fatalf("planned %d entries, want 2", len(result.Entries))
	}
	if result.Entries[0].PilotID != "urgent" {
		t.Errorf("first allocation = %s, want the urgent certification", result.Entries[0].PilotID)
	}
}

// =============================================================================
// FILTERS AND SUMMARIES
// =============================================================================

func TestGeneratePlan_CategoryFilterRestrictsInput(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{PilotID: "p1", Category: "Line Check", ExpiresAt: date(2025, time.March, 1)})
	mem.SeedCertification(planning.CertificationDue{PilotID: "p2", Category: "ID Cards", ExpiresAt: date(2025, time.February, 1)})

	alloc := newTestAllocator(mem)
	result, err := alloc.GeneratePlan(context.Background(), planning.PlanRequest{
		HorizonMonths:  6,
		CategoryFilter: "ID Cards",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 || result.Entries[0].Category != "ID Cards" {
		t.Errorf("filtered run planned %v, want only the ID Cards certification", result.Entries)
	}
}

func TestGeneratePlan_ResultCountsByCategoryAndPeriod(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedCertification(planning.CertificationDue{PilotID: "p1", Category: "ID Cards", ExpiresAt: date(2025, time.January, 20)})
	mem.SeedCertification(planning.CertificationDue{PilotID: "p2", Category: "ID Cards", ExpiresAt: date(2025, time.January, 25)})
	mem.SeedCapacity("RP1/2025", "ID Cards", 5)

	result := generate(t, newTestAllocator(mem), 3)

	if got := result.ByCategory["ID Cards"]; got != 2 {
		t.Errorf("ByCategory[ID Cards] = %d, want 2", got)
	}
	if got := result.ByPeriod["RP1/2025"]; got != 2 {
		t.Errorf("ByPeriod[RP1/2025] = %d, want 2", got)
	}
}
