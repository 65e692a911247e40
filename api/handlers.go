/*
handlers.go - HTTP API handlers for the renewal planning engine

PURPOSE:
  Exposes the planning engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the planning domain logic.

ENDPOINTS:
  Plans:
    POST   /api/plans/generate        Run the allocator over due certifications
    DELETE /api/plans                 Clear all plans (destructive, audited)
    GET    /api/plans                 List plan entries (filterable)
    GET    /api/plans/export          CSV export of plan entries
    GET    /api/plans/{id}            Get one plan entry
    POST   /api/plans/{id}/status     Lifecycle transition

  Periods:
    GET    /api/periods               Registered roster periods
    GET    /api/periods/{code}/summary  Capacity/utilization summary

  Admin:
    POST   /api/admin/certifications  Register a due certification
    POST   /api/admin/capacity        Set capacity for a period/category
    GET    /api/audit                 Recent audit entries

  Scenarios:
    GET    /api/scenarios             List demo scenarios
    POST   /api/scenarios/load        Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, illegal transitions
  - 404: Plan entry not found
  - 409: Duplicate plan (uniqueness constraint)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - planning/allocator.go: The engine behind /api/plans/generate
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/skyfleet/renewal-engine/planning"
	"github.com/skyfleet/renewal-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Grace    *planning.GraceTable
	Calendar *planning.RosterCalendar

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and configuration.
func NewHandler(store *sqlite.Store, grace *planning.GraceTable, calendar *planning.RosterCalendar) *Handler {
	return &Handler{
		Store:    store,
		Grace:    grace,
		Calendar: calendar,
	}
}

// allocator builds a planning run wired to the store-backed gateways.
func (h *Handler) allocator(sortByPriority, strict bool) *planning.Allocator {
	return &planning.Allocator{
		Calendar:         h.Calendar,
		Windows:          planning.WindowCalculator{Grace: h.Grace},
		Certs:            h.Store,
		Capacity:         h.Store,
		Plans:            h.Store,
		Audit:            h.Store,
		SortByPriority:   sortByPriority,
		StrictCategories: strict,
	}
}

// =============================================================================
// PLAN GENERATION
// =============================================================================

// GeneratePlan runs the allocator over all due certifications.
// POST /api/plans/generate
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	alloc := h.allocator(req.SortByPriority, req.Strict)
	result, err := alloc.GeneratePlan(r.Context(), planning.PlanRequest{
		HorizonMonths:  req.HorizonMonths,
		CategoryFilter: planning.Category(req.CategoryFilter),
		PilotFilter:    planning.PilotID(req.PilotFilter),
		ActorID:        actorFrom(r),
	})
	if err != nil {
		switch {
		case planning.IsClientError(err), errors.Is(err, planning.ErrUnknownCategory):
			writeError(w, http.StatusBadRequest, "Planning run refused", err)
		case errors.Is(err, planning.ErrPersistFailed):
			writeError(w, http.StatusConflict, "Plan persistence failed, nothing committed", err)
		default:
			writeError(w, http.StatusInternalServerError, "Planning run failed", err)
		}
		return
	}

	resp := GeneratePlanResponse{
		TotalPlans:     result.TotalPlanned(),
		Skipped:        len(result.Skipped),
		ByCategory:     make(map[string]int, len(result.ByCategory)),
		ByRosterPeriod: result.ByPeriod,
		GeneratedAt:    result.GeneratedAt.String(),
	}
	for cat, n := range result.ByCategory {
		resp.ByCategory[string(cat)] = n
	}
	for _, skip := range result.Skipped {
		resp.Skips = append(resp.Skips, SkipDTO{
			PilotID:  string(skip.Certification.PilotID),
			Category: string(skip.Certification.Category),
			Expiry:   skip.Certification.ExpiresAt.String(),
			Reason:   string(skip.Reason),
		})
	}
	for _, warn := range result.Warnings {
		resp.Warnings = append(resp.Warnings, WarningDTO{
			Code:     warn.Code,
			PilotID:  string(warn.PilotID),
			Category: string(warn.Category),
			Message:  warn.Message,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ClearPlans deletes every plan entry. Destructive; access control is
// enforced upstream.
// DELETE /api/plans
func (h *Handler) ClearPlans(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.ClearAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear plans", err)
		return
	}

	_ = h.Store.Append(r.Context(), planning.AuditEntry{
		ID:      uuid.NewString(),
		At:      time.Now().UTC(),
		ActorID: actorFrom(r),
		Action:  planning.AuditPlansCleared,
		Payload: map[string]any{"cleared": n},
	})

	writeJSON(w, http.StatusOK, map[string]any{"cleared": n})
}

// =============================================================================
// PLAN QUERIES
// =============================================================================

// ListPlans returns plan entries, optionally filtered.
// GET /api/plans?period=&pilot=&category=&status=
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.Store.List(r.Context(), planning.PlanFilter{
		PeriodCode: q.Get("period"),
		PilotID:    planning.PilotID(q.Get("pilot")),
		Category:   planning.Category(q.Get("category")),
		Status:     planning.PlanStatus(q.Get("status")),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toPlanEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns a single plan entry.
// GET /api/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if planning.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Plan entry not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get plan entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toPlanEntryDTO(*entry))
}

// UpdatePlanStatus applies a lifecycle transition (confirm, cancel,
// reschedule, complete).
// POST /api/plans/{id}/status
func (h *Handler) UpdatePlanStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := planning.PlanStatus(req.Status)
	if !status.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown status value", nil)
		return
	}

	var plannedAt *planning.TimePoint
	if req.PlannedDate != "" {
		tp, err := planning.ParseDate(req.PlannedDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid planned_date format (use YYYY-MM-DD)", err)
			return
		}
		plannedAt = &tp
	}

	if err := h.Store.UpdateStatus(r.Context(), id, status, plannedAt); err != nil {
		switch {
		case planning.IsNotFound(err):
			writeError(w, http.StatusNotFound, "Plan entry not found", nil)
		case planning.IsClientError(err):
			writeError(w, http.StatusBadRequest, "Transition rejected", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update plan entry", err)
		}
		return
	}

	_ = h.Store.Append(r.Context(), planning.AuditEntry{
		ID:      uuid.NewString(),
		At:      time.Now().UTC(),
		ActorID: actorFrom(r),
		Action:  planning.AuditStatusChanged,
		Payload: map[string]any{"entry_id": id, "status": req.Status},
	})

	entry, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload plan entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanEntryDTO(*entry))
}

// =============================================================================
// PERIOD ENDPOINTS
// =============================================================================

// ListPeriods returns all registered roster periods.
// GET /api/periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods := h.Calendar.Periods()
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = PeriodDTO{Code: p.Code, Start: p.Start.String(), End: p.End.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPeriodSummary returns the capacity/utilization summary for a period.
// Period codes contain a slash (RP3/2025), so callers percent-encode them.
// GET /api/periods/{code}/summary
func (h *Handler) GetPeriodSummary(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if decoded, err := url.PathUnescape(code); err == nil {
		code = decoded
	}
	if _, ok := h.Calendar.PeriodByCode(code); !ok {
		writeError(w, http.StatusNotFound, "Unknown roster period", nil)
		return
	}

	summarizer := &planning.Summarizer{Plans: h.Store, Capacity: h.Store}
	summary, err := summarizer.PeriodSummary(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build summary", err)
		return
	}

	utilization, _ := summary.Utilization.Float64()
	dto := PeriodSummaryDTO{
		PeriodCode:    summary.PeriodCode,
		TotalCapacity: summary.TotalCapacity,
		TotalPlanned:  summary.TotalPlanned,
		Utilization:   utilization,
	}
	for _, b := range summary.Breakdown {
		dto.Breakdown = append(dto.Breakdown, CategoryBreakdownDTO{
			Category: string(b.Category),
			Capacity: b.Capacity,
			Planned:  b.Planned,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// SaveCertification registers a due certification.
// POST /api/admin/certifications
func (h *Handler) SaveCertification(w http.ResponseWriter, r *http.Request) {
	var req SaveCertificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	expiry, err := planning.ParseDate(req.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expires_at format (use YYYY-MM-DD)", err)
		return
	}

	cert := planning.CertificationDue{
		PilotID:   planning.PilotID(req.PilotID),
		Category:  planning.Category(req.Category),
		ExpiresAt: expiry,
	}
	if err := h.Store.SaveCertification(r.Context(), cert); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save certification", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// SaveCapacity sets the renewal capacity for one period and category.
// POST /api/admin/capacity
func (h *Handler) SaveCapacity(w http.ResponseWriter, r *http.Request) {
	var req SaveCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := h.Calendar.PeriodByCode(req.PeriodCode); !ok {
		writeError(w, http.StatusBadRequest, "Unknown roster period", nil)
		return
	}
	if req.MaxCount < 0 {
		writeError(w, http.StatusBadRequest, "Capacity cannot be negative", nil)
		return
	}

	err := h.Store.SaveCapacity(r.Context(), req.PeriodCode, planning.Category(req.Category), req.MaxCount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save capacity", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListAudit returns recent audit entries, newest first.
// GET /api/audit?limit=50
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	entries, err := h.Store.Entries(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list audit entries", err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditEntryDTO{
			ID:      e.ID,
			At:      e.At.Format(time.RFC3339),
			ActorID: e.ActorID,
			Action:  string(e.Action),
			Payload: e.Payload,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// actorFrom identifies the caller for the audit trail. Authentication is
// external to this service; upstream proxies set X-Actor-Id.
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Actor-Id"); actor != "" {
		return actor
	}
	return "anonymous"
}
