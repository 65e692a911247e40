// Package store provides in-memory gateway implementations for testing and dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/skyfleet/renewal-engine/planning"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of every gateway interface
// =============================================================================

// Memory implements planning.PlanStore, CertificationSource,
// CapacityProvider and AuditLog backed by maps. Safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	plans      map[string]planning.RenewalPlanEntry
	order      []string // insertion order of plan IDs
	due        []planning.CertificationDue
	capacities map[string]planning.CapacityMap
	audit      []planning.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		plans:      make(map[string]planning.RenewalPlanEntry),
		capacities: make(map[string]planning.CapacityMap),
	}
}

// =============================================================================
// SEEDING - Test/dev fixture helpers
// =============================================================================

// SeedCertification registers a due certification.
func (m *Memory) SeedCertification(cert planning.CertificationDue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.due = append(m.due, cert)
}

// SeedCapacity sets the capacity for one period and category.
func (m *Memory) SeedCapacity(periodCode string, cat planning.Category, max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byCat := m.capacities[periodCode]
	if byCat == nil {
		byCat = make(planning.CapacityMap)
		m.capacities[periodCode] = byCat
	}
	byCat[cat] = max
}

// Reset drops all data.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = make(map[string]planning.RenewalPlanEntry)
	m.order = nil
	m.due = nil
	m.capacities = make(map[string]planning.CapacityMap)
	m.audit = nil
}

// =============================================================================
// CERTIFICATION SOURCE
// =============================================================================

// DueWithin returns seeded certifications expiring on or before cutoff,
// in seed order.
func (m *Memory) DueWithin(_ context.Context, cutoff planning.TimePoint) ([]planning.CertificationDue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []planning.CertificationDue
	for _, c := range m.due {
		if c.ExpiresAt.BeforeOrEqual(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

// =============================================================================
// CAPACITY PROVIDER
// =============================================================================

func (m *Memory) CapacityFor(_ context.Context, periodCode string) (planning.CapacityMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(planning.CapacityMap, len(m.capacities[periodCode]))
	for cat, n := range m.capacities[periodCode] {
		out[cat] = n
	}
	return out, nil
}

func (m *Memory) Capacities(_ context.Context) (map[string]planning.CapacityMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]planning.CapacityMap, len(m.capacities))
	for code, byCat := range m.capacities {
		cp := make(planning.CapacityMap, len(byCat))
		for cat, n := range byCat {
			cp[cat] = n
		}
		out[code] = cp
	}
	return out, nil
}

// =============================================================================
// PLAN STORE
// =============================================================================

// BulkInsert writes all entries atomically. Uniqueness over
// (pilot, category, expiry) is checked across the whole batch before any
// entry is inserted.
func (m *Memory) BulkInsert(_ context.Context, entries []planning.RenewalPlanEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	type dueKey struct {
		Pilot    planning.PilotID
		Category planning.Category
		Expiry   string
	}
	existing := make(map[dueKey]bool, len(m.plans))
	for _, e := range m.plans {
		existing[dueKey{e.PilotID, e.Category, e.ExpiresAt.String()}] = true
	}

	// Check the whole batch first so failure leaves nothing behind.
	for _, e := range entries {
		k := dueKey{e.PilotID, e.Category, e.ExpiresAt.String()}
		if existing[k] || m.plans[e.ID].ID != "" {
			return planning.ErrDuplicatePlan
		}
		existing[k] = true
	}

	for _, e := range entries {
		m.plans[e.ID] = e
		m.order = append(m.order, e.ID)
	}
	return nil
}

func (m *Memory) List(_ context.Context, filter planning.PlanFilter) ([]planning.RenewalPlanEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []planning.RenewalPlanEntry
	for _, id := range m.order {
		e := m.plans[id]
		if filter.PeriodCode != "" && e.PeriodCode != filter.PeriodCode {
			continue
		}
		if filter.PilotID != "" && e.PilotID != filter.PilotID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlannedAt.Before(out[j].PlannedAt) })
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (*planning.RenewalPlanEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.plans[id]
	if !ok {
		return nil, planning.ErrPlanNotFound
	}
	return &e, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, status planning.PlanStatus, plannedAt *planning.TimePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.plans[id]
	if !ok {
		return planning.ErrPlanNotFound
	}
	if !e.Status.CanTransitionTo(status) {
		return &planning.TransitionError{EntryID: id, From: e.Status, To: status}
	}
	if plannedAt != nil {
		if !e.Window().Contains(*plannedAt) {
			return planning.ErrDateOutsideWindow
		}
		e.PlannedAt = *plannedAt
	}
	e.Status = status
	m.plans[id] = e
	return nil
}

func (m *Memory) ClearAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.plans)
	m.plans = make(map[string]planning.RenewalPlanEntry)
	m.order = nil
	return n, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) Append(_ context.Context, entry planning.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) Entries(_ context.Context, limit int) ([]planning.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]planning.AuditEntry, len(m.audit))
	copy(out, m.audit)
	// Most recent first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
