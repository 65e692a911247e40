/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - planning/types.go: Domain model these are projected from
*/
package api

import (
	"time"

	"github.com/skyfleet/renewal-engine/planning"
)

// =============================================================================
// PLAN GENERATION
// =============================================================================

// GeneratePlanRequest triggers a planning run.
type GeneratePlanRequest struct {
	HorizonMonths  int    `json:"horizon_months"`
	CategoryFilter string `json:"category_filter,omitempty"`
	PilotFilter    string `json:"pilot_filter,omitempty"`
	SortByPriority bool   `json:"sort_by_priority,omitempty"`
	Strict         bool   `json:"strict,omitempty"`
}

// GeneratePlanResponse summarizes a completed run.
type GeneratePlanResponse struct {
	TotalPlans     int            `json:"total_plans"`
	Skipped        int            `json:"skipped"`
	ByCategory     map[string]int `json:"by_category"`
	ByRosterPeriod map[string]int `json:"by_roster_period"`
	Skips          []SkipDTO      `json:"skips,omitempty"`
	Warnings       []WarningDTO   `json:"warnings,omitempty"`
	GeneratedAt    string         `json:"generated_at"`
}

type SkipDTO struct {
	PilotID  string `json:"pilot_id"`
	Category string `json:"category"`
	Expiry   string `json:"expiry"`
	Reason   string `json:"reason"`
}

type WarningDTO struct {
	Code     string `json:"code"`
	PilotID  string `json:"pilot_id"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// =============================================================================
// PLAN ENTRIES
// =============================================================================

type PlanEntryDTO struct {
	ID          string `json:"id"`
	PilotID     string `json:"pilot_id"`
	Category    string `json:"category"`
	ExpiresAt   string `json:"expires_at"`
	PlannedAt   string `json:"planned_at"`
	PeriodCode  string `json:"period_code"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	Status      string `json:"status"`
	Priority    int    `json:"priority"`
	CreatedAt   string `json:"created_at"`
}

func toPlanEntryDTO(e planning.RenewalPlanEntry) PlanEntryDTO {
	return PlanEntryDTO{
		ID:          e.ID,
		PilotID:     string(e.PilotID),
		Category:    string(e.Category),
		ExpiresAt:   e.ExpiresAt.String(),
		PlannedAt:   e.PlannedAt.String(),
		PeriodCode:  e.PeriodCode,
		WindowStart: e.WindowStart.String(),
		WindowEnd:   e.WindowEnd.String(),
		Status:      string(e.Status),
		Priority:    e.Priority,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

// UpdateStatusRequest applies a lifecycle transition to a plan entry.
// PlannedDate is only used for reschedules and must stay inside the
// entry's renewal window.
type UpdateStatusRequest struct {
	Status      string `json:"status"`
	PlannedDate string `json:"planned_date,omitempty"`
}

// =============================================================================
// PERIODS AND SUMMARIES
// =============================================================================

type PeriodDTO struct {
	Code  string `json:"code"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type PeriodSummaryDTO struct {
	PeriodCode    string                 `json:"period_code"`
	TotalCapacity int                    `json:"total_capacity"`
	TotalPlanned  int                    `json:"total_planned"`
	Utilization   float64                `json:"utilization_percentage"`
	Breakdown     []CategoryBreakdownDTO `json:"per_category_breakdown"`
}

type CategoryBreakdownDTO struct {
	Category string `json:"category"`
	Capacity int    `json:"capacity"`
	Planned  int    `json:"planned"`
}

// =============================================================================
// ADMIN
// =============================================================================

type SaveCertificationRequest struct {
	PilotID   string `json:"pilot_id"`
	Category  string `json:"category"`
	ExpiresAt string `json:"expires_at"`
}

type SaveCapacityRequest struct {
	PeriodCode string `json:"period_code"`
	Category   string `json:"category"`
	MaxCount   int    `json:"max_count"`
}

// =============================================================================
// AUDIT
// =============================================================================

type AuditEntryDTO struct {
	ID      string         `json:"id"`
	At      string         `json:"at"`
	ActorID string         `json:"actor_id"`
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
