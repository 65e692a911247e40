/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates due certifications
	and roster capacity that demonstrate specific engine behavior.

AVAILABLE SCENARIOS:

	standard-fleet:   A small fleet with mixed categories due over 6 months
	capacity-crunch:  Many same-category renewals competing for capacity 1
	horizon-gap:      Expiries beyond the registered calendar (skip reporting)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed roster capacity for the registered periods
 3. Seed due certifications relative to today
 4. Caller then runs POST /api/plans/generate

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Route wiring
  - planning/allocator.go: The behavior each scenario demonstrates
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/skyfleet/renewal-engine/planning"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-fleet",
		Name:        "Standard Fleet",
		Description: "Twelve pilots with mixed certification categories due over the next six months",
	},
	{
		ID:          "capacity-crunch",
		Name:        "Capacity Crunch",
		Description: "Eight simulator checks competing for periods with capacity 1, forcing load spreading",
	},
	{
		ID:          "horizon-gap",
		Name:        "Horizon Gap",
		Description: "Certifications expiring beyond the registered calendar, exercising skip reporting",
	},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the most recently loaded scenario ID.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario resets the database and seeds the requested scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "standard-fleet":
		err = h.loadStandardFleetScenario(ctx)
	case "capacity-crunch":
		err = h.loadCapacityCrunchScenario(ctx)
	case "horizon-gap":
		err = h.loadHorizonGapScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedUniformCapacity gives every registered period the same capacity for
// the given categories.
func (h *Handler) seedUniformCapacity(ctx context.Context, max int, cats ...planning.Category) error {
	for _, p := range h.Calendar.Periods() {
		for _, cat := range cats {
			if err := h.Store.SaveCapacity(ctx, p.Code, cat, max); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handler) loadStandardFleetScenario(ctx context.Context) error {
	cats := []planning.Category{
		"License Proficiency Check",
		"Medical Certificate",
		"Line Check",
		"Recurrent Ground Training",
	}
	if err := h.seedUniformCapacity(ctx, 4, cats...); err != nil {
		return err
	}

	today := planning.Today()
	for i := 0; i < 12; i++ {
		pilot := planning.PilotID(fmt.Sprintf("plt-%03d", 101+i))
		cert := planning.CertificationDue{
			PilotID:   pilot,
			Category:  cats[i%len(cats)],
			ExpiresAt: today.AddDays(30 + i*12),
		}
		if err := h.Store.SaveCertification(ctx, cert); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadCapacityCrunchScenario(ctx context.Context) error {
	const cat = planning.Category("License Proficiency Check")
	if err := h.seedUniformCapacity(ctx, 1, cat); err != nil {
		return err
	}

	// Eight pilots, same category, overlapping windows: the allocator has
	// to spread them across periods as each fills to load 1.0.
	today := planning.Today()
	for i := 0; i < 8; i++ {
		cert := planning.CertificationDue{
			PilotID:   planning.PilotID(fmt.Sprintf("plt-%03d", 201+i)),
			Category:  cat,
			ExpiresAt: today.AddDays(95 + i),
		}
		if err := h.Store.SaveCertification(ctx, cert); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadHorizonGapScenario(ctx context.Context) error {
	const cat = planning.Category("Medical Certificate")
	if err := h.seedUniformCapacity(ctx, 2, cat); err != nil {
		return err
	}

	today := planning.Today()
	// One plannable certification and one expiring long after the last
	// registered period, which the run must report as a skip.
	periods := h.Calendar.Periods()
	lastEnd := periods[len(periods)-1].End

	plannable := planning.CertificationDue{
		PilotID:   "plt-301",
		Category:  cat,
		ExpiresAt: today.AddDays(60),
	}
	if err := h.Store.SaveCertification(ctx, plannable); err != nil {
		return err
	}

	unplannable := planning.CertificationDue{
		PilotID:   "plt-302",
		Category:  cat,
		ExpiresAt: lastEnd.AddDays(120),
	}
	return h.Store.SaveCertification(ctx, unplannable)
}
