package planning

import "sort"

// =============================================================================
// GRACE PERIOD TABLE - Category -> days-before-expiry renewal eligibility
// =============================================================================
// The grace period defines how many days before expiry a certification may
// be renewed without being considered early. The table is an injected
// configuration object, not a package-level constant, so alternate schemes
// can be tested without touching globals.

type GraceTable struct {
	days map[Category]int
}

// NewGraceTable builds a table from category -> days entries.
// Negative day counts are clamped to zero (a grace period is never negative).
func NewGraceTable(entries map[Category]int) *GraceTable {
	days := make(map[Category]int, len(entries))
	for cat, d := range entries {
		if d < 0 {
			d = 0
		}
		days[cat] = d
	}
	return &GraceTable{days: days}
}

// Days returns the grace period for a category. Unknown categories return 0.
// Callers that care about the difference between "configured as zero" and
// "never configured" should check Known.
func (g *GraceTable) Days(cat Category) int {
	return g.days[cat]
}

// Known reports whether the category has an explicit entry.
func (g *GraceTable) Known(cat Category) bool {
	_, ok := g.days[cat]
	return ok
}

// Categories returns all configured categories, sorted.
func (g *GraceTable) Categories() []Category {
	cats := make([]Category, 0, len(g.days))
	for cat := range g.days {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// DefaultGraceTable returns the standard fleet configuration.
// Document-type certifications (ID cards, passports) have no grace period:
// they can only be renewed on the day they expire.
func DefaultGraceTable() *GraceTable {
	return NewGraceTable(map[Category]int{
		"License Proficiency Check":  90,
		"Operator Proficiency Check": 90,
		"Line Check":                 90,
		"Medical Certificate":        45,
		"Recurrent Ground Training":  90,
		"Dangerous Goods":            90,
		"Crew Resource Management":   90,
		"ID Cards":                   0,
		"Passport":                   0,
	})
}
