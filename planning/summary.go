package planning

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CAPACITY / UTILIZATION SUMMARY - Reporting over persisted plan entries
// =============================================================================

// CategoryBreakdown is one category's slice of a period summary.
type CategoryBreakdown struct {
	Category Category
	Capacity int
	Planned  int
}

// PeriodSummary aggregates persisted plan entries against configured
// capacity for one roster period.
type PeriodSummary struct {
	PeriodCode    string
	TotalCapacity int
	TotalPlanned  int
	// Utilization is TotalPlanned / TotalCapacity * 100. A period with no
	// configured capacity reports 0, not an error.
	Utilization decimal.Decimal
	Breakdown   []CategoryBreakdown
}

// Summarizer joins persisted plan entries with configured capacity.
type Summarizer struct {
	Plans    PlanStore
	Capacity CapacityProvider
}

// PeriodSummary builds the capacity/utilization report for one period.
// Cancelled entries don't occupy capacity and are excluded.
func (s *Summarizer) PeriodSummary(ctx context.Context, periodCode string) (*PeriodSummary, error) {
	entries, err := s.Plans.List(ctx, PlanFilter{PeriodCode: periodCode})
	if err != nil {
		return nil, err
	}
	capacity, err := s.Capacity.CapacityFor(ctx, periodCode)
	if err != nil {
		return nil, err
	}
	return SummarizePeriod(periodCode, entries, capacity), nil
}

// SummarizePeriod is the pure aggregation behind PeriodSummary.
func SummarizePeriod(periodCode string, entries []RenewalPlanEntry, capacity CapacityMap) *PeriodSummary {
	planned := make(map[Category]int)
	for _, e := range entries {
		if e.Status == StatusCancelled {
			continue
		}
		planned[e.Category]++
	}

	summary := &PeriodSummary{
		PeriodCode:    periodCode,
		TotalCapacity: capacity.Total(),
		Utilization:   decimal.Zero,
	}

	// Union of configured and planned categories, sorted for stable output.
	cats := make(map[Category]bool)
	for cat := range capacity {
		cats[cat] = true
	}
	for cat := range planned {
		cats[cat] = true
	}
	ordered := make([]Category, 0, len(cats))
	for cat := range cats {
		ordered = append(ordered, cat)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, cat := range ordered {
		summary.Breakdown = append(summary.Breakdown, CategoryBreakdown{
			Category: cat,
			Capacity: capacity[cat],
			Planned:  planned[cat],
		})
		summary.TotalPlanned += planned[cat]
	}

	if summary.TotalCapacity > 0 {
		summary.Utilization = decimal.NewFromInt(int64(summary.TotalPlanned)).
			Div(decimal.NewFromInt(int64(summary.TotalCapacity))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return summary
}
