package api

import (
	"net/http"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/skyfleet/renewal-engine/planning"
)

// =============================================================================
// CSV EXPORT - Flat tabular projection of persisted plan entries
// =============================================================================

// exportRow is the CSV shape of a plan entry. csvutil derives the header
// from the struct tags.
type exportRow struct {
	PilotID     string `csv:"pilot_id"`
	Category    string `csv:"category"`
	ExpiresAt   string `csv:"expires_at"`
	PlannedAt   string `csv:"planned_at"`
	PeriodCode  string `csv:"roster_period"`
	WindowStart string `csv:"window_start"`
	WindowEnd   string `csv:"window_end"`
	Status      string `csv:"status"`
	Priority    int    `csv:"priority"`
}

// ExportPlans streams all plan entries as a CSV download. Accepts the same
// filters as ListPlans.
// GET /api/plans/export?period=&pilot=&category=&status=
func (h *Handler) ExportPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.Store.List(r.Context(), planning.PlanFilter{
		PeriodCode: q.Get("period"),
		PilotID:    planning.PilotID(q.Get("pilot")),
		Category:   planning.Category(q.Get("category")),
		Status:     planning.PlanStatus(q.Get("status")),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load plan entries", err)
		return
	}

	rows := make([]exportRow, len(entries))
	for i, e := range entries {
		rows[i] = exportRow{
			PilotID:     string(e.PilotID),
			Category:    string(e.Category),
			ExpiresAt:   e.ExpiresAt.String(),
			PlannedAt:   e.PlannedAt.String(),
			PeriodCode:  e.PeriodCode,
			WindowStart: e.WindowStart.String(),
			WindowEnd:   e.WindowEnd.String(),
			Status:      string(e.Status),
			Priority:    e.Priority,
		}
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode CSV", err)
		return
	}

	filename := "renewal-plan-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
