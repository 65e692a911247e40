/*
Package factory provides JSON to Go planning configuration conversion.

PURPOSE:
  Converts JSON planning configuration into grace tables, roster calendars
  and capacity maps. This enables configuration without code changes -
  fleet administration can adjust grace periods and roster capacity in
  JSON, and the factory creates the proper Go objects.

JSON SCHEMA:
  {
    "grace_periods": {
      "Medical Certificate": 45,
      "Line Check": 90,
      "ID Cards": 0
    },
    "calendar": {
      "anchor": "2025-01-06",
      "periods": 26
    },
    "capacities": {
      "RP1/2025": {"Line Check": 10, "Medical Certificate": 8}
    }
  }

KEY FEATURES:
  - Validates structure (anchor date format, positive period count)
  - Rejects negative grace periods and capacities
  - Capacity period codes are validated against the generated calendar

USAGE:
  cfg, err := factory.ParseConfig(jsonBytes)
  allocator := &planning.Allocator{
      Calendar: cfg.Calendar,
      Windows:  planning.WindowCalculator{Grace: cfg.Grace},
      ...
  }

SEE ALSO:
  - planning/grace.go: GraceTable definition
  - planning/calendar.go: RosterCalendar definition
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/skyfleet/renewal-engine/planning"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type ConfigJSON struct {
	GracePeriods map[string]int            `json:"grace_periods"`
	Calendar     CalendarJSON              `json:"calendar"`
	Capacities   map[string]map[string]int `json:"capacities"`
}

type CalendarJSON struct {
	Anchor  string `json:"anchor"`  // YYYY-MM-DD, start of the first period
	Periods int    `json:"periods"` // number of contiguous 28-day periods
}

// =============================================================================
// PARSED CONFIGURATION
// =============================================================================

// PlanningConfig is the parsed, validated configuration.
type PlanningConfig struct {
	Grace      *planning.GraceTable
	Calendar   *planning.RosterCalendar
	Capacities map[string]planning.CapacityMap
}

// ParseConfig parses and validates a JSON planning configuration.
func ParseConfig(data []byte) (*PlanningConfig, error) {
	var cfg ConfigJSON
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %w", err)
	}

	grace := make(map[planning.Category]int, len(cfg.GracePeriods))
	for cat, days := range cfg.GracePeriods {
		if days < 0 {
			return nil, fmt.Errorf("grace period for %q is negative (%d days)", cat, days)
		}
		grace[planning.Category(cat)] = days
	}

	anchor, err := planning.ParseDate(cfg.Calendar.Anchor)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar anchor %q: %w", cfg.Calendar.Anchor, err)
	}
	if cfg.Calendar.Periods <= 0 {
		return nil, fmt.Errorf("calendar must have at least one period, got %d", cfg.Calendar.Periods)
	}
	calendar := planning.NewRosterCalendar(anchor, cfg.Calendar.Periods)

	capacities := make(map[string]planning.CapacityMap, len(cfg.Capacities))
	for code, byCat := range cfg.Capacities {
		if _, ok := calendar.PeriodByCode(code); !ok {
			return nil, fmt.Errorf("capacity configured for unknown roster period %q", code)
		}
		cm := make(planning.CapacityMap, len(byCat))
		for cat, max := range byCat {
			if max < 0 {
				return nil, fmt.Errorf("capacity for %s/%q is negative (%d)", code, cat, max)
			}
			cm[planning.Category(cat)] = max
		}
		capacities[code] = cm
	}

	return &PlanningConfig{
		Grace:      planning.NewGraceTable(grace),
		Calendar:   calendar,
		Capacities: capacities,
	}, nil
}

// DefaultConfigJSON returns a ready-to-use configuration: the standard
// grace table and a 26-period calendar starting at the given anchor, with
// uniform capacity per category.
func DefaultConfigJSON(anchor string, perCategoryCapacity int) string {
	cfg := ConfigJSON{
		GracePeriods: map[string]int{},
		Calendar:     CalendarJSON{Anchor: anchor, Periods: 26},
		Capacities:   map[string]map[string]int{},
	}
	grace := planning.DefaultGraceTable()
	for _, cat := range grace.Categories() {
		cfg.GracePeriods[string(cat)] = grace.Days(cat)
	}

	anchorTP, err := planning.ParseDate(anchor)
	if err == nil {
		calendar := planning.NewRosterCalendar(anchorTP, cfg.Calendar.Periods)
		for _, p := range calendar.Periods() {
			byCat := make(map[string]int, len(cfg.GracePeriods))
			for cat := range cfg.GracePeriods {
				byCat[cat] = perCategoryCapacity
			}
			cfg.Capacities[p.Code] = byCat
		}
	}

	out, _ := json.MarshalIndent(cfg, "", "  ")
	return string(out)
}
