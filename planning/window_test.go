package planning_test

import (
	"testing"
	"time"

	"github.com/skyfleet/renewal-engine/planning"
)

func testGrace() *planning.GraceTable {
	return planning.NewGraceTable(map[planning.Category]int{
		"Line Check":          90,
		"Medical Certificate": 45,
		"ID Cards":            0,
	})
}

// =============================================================================
// WINDOW COMPUTATION
// =============================================================================

func TestWindow_StartIsExpiryMinusGrace(t *testing.T) {
	// GIVEN: Expiry 2026-03-15, category grace period 90 days
	// THEN: Window = [2025-12-15, 2026-03-15]

	calc := planning.WindowCalculator{Grace: testGrace()}
	w := calc.Compute(date(2026, time.March, 15), "Line Check")

	if !w.Start.Equal(date(2025, time.December, 15)) {
		t.Errorf("window start = %s, want 2025-12-15", w.Start)
	}
	if !w.End.Equal(date(2026, time.March, 15)) {
		t.Errorf("window end = %s, want 2026-03-15", w.End)
	}
	if w.Start.After(w.End) {
		t.Error("window start after end")
	}
}

func TestWindow_ZeroGraceIsSingleDay(t *testing.T) {
	// GIVEN: A zero-grace category (ID Cards) expiring 2026-01-10
	// THEN: The window is the single day [2026-01-10, 2026-01-10]

	calc := planning.WindowCalculator{Grace: testGrace()}
	w := calc.Compute(date(2026, time.January, 10), "ID Cards")

	if !w.Start.Equal(w.End) {
		t.Errorf("zero-grace window not single-day: %s", w)
	}
	if !w.End.Equal(date(2026, time.January, 10)) {
		t.Errorf("window end = %s, want the expiry date", w.End)
	}
}

func TestWindow_UnknownCategoryDefaultsToZeroGrace(t *testing.T) {
	calc := planning.WindowCalculator{Grace: testGrace()}
	w := calc.Compute(date(2026, time.May, 1), "Jetpack Rating")

	if !w.Start.Equal(w.End) {
		t.Errorf("unknown category window should be single-day, got %s", w)
	}
	if testGrace().Known("Jetpack Rating") {
		t.Error("unknown category reported as known")
	}
}

// =============================================================================
// CLAMPING
// =============================================================================

func TestWindow_Clamp(t *testing.T) {
	w := planning.RenewalWindow{
		Start: date(2025, time.December, 15),
		End:   date(2026, time.March, 15),
	}

	tests := []struct {
		name string
		in   planning.TimePoint
		want planning.TimePoint
	}{
		{"before window snaps to start", date(2025, time.November, 20), w.Start},
		{"after window snaps to end", date(2026, time.April, 1), w.End},
		{"inside window passes through", date(2026, time.January, 10), date(2026, time.January, 10)},
		{"exactly start is a no-op", w.Start, w.Start},
		{"exactly end is a no-op", w.End, w.End},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Clamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("Clamp(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// GRACE TABLE
// =============================================================================

func TestGraceTable_NegativeDaysClampToZero(t *testing.T) {
	g := planning.NewGraceTable(map[planning.Category]int{"Broken": -7})
	if got := g.Days("Broken"); got != 0 {
		t.Errorf("negative grace stored as %d, want 0", got)
	}
}

func TestGraceTable_DefaultHasZeroGraceDocuments(t *testing.T) {
	g := planning.DefaultGraceTable()
	if got := g.Days("ID Cards"); got != 0 {
		t.Errorf("ID Cards grace = %d, want 0", got)
	}
	if !g.Known("ID Cards") {
		t.Error("ID Cards should be explicitly configured, not defaulted")
	}
}
