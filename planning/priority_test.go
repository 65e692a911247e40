package planning_test

import (
	"testing"
	"time"

	"github.com/skyfleet/renewal-engine/planning"
)

func TestPriorityScore_Bands(t *testing.T) {
	now := date(2026, time.January, 1)

	tests := []struct {
		name     string
		daysOut  int
		expected int
	}{
		{"already expired", -1, 10},
		{"long expired", -200, 10},
		{"expires today", 0, 9},
		{"30 days out", 30, 9},
		{"31 days out", 31, 7},
		{"60 days out", 60, 7},
		{"61 days out", 61, 5},
		{"90 days out", 90, 5},
		{"91 days out tapers", 91, 6},  // floor(10 - 91/30) = 6
		{"120 days out", 120, 6},       // floor(10 - 4.0) = 6
		{"121 days out", 121, 5},       // floor(10 - 4.03) = 5
		{"180 days out", 180, 4},       // floor(10 - 6.0) = 4
		{"270 days out", 270, 1},       // floor(10 - 9.0) = 1
		{"very distant floors at 1", 720, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expiry := now.AddDays(tt.daysOut)
			if got := planning.PriorityScore(expiry, now); got != tt.expected {
				t.Errorf("PriorityScore(now+%dd) = %d, want %d", tt.daysOut, got, tt.expected)
			}
		})
	}
}

func TestPriorityScore_Idempotent(t *testing.T) {
	// GIVEN: Identical arguments
	// THEN: Identical results, with no hidden time dependence

	now := date(2026, time.February, 1)
	expiry := date(2026, time.July, 15)

	first := planning.PriorityScore(expiry, now)
	second := planning.PriorityScore(expiry, now)
	if first != second {
		t.Errorf("same inputs gave %d then %d", first, second)
	}
}

func TestPriorityScore_AlwaysInRange(t *testing.T) {
	now := date(2026, time.January, 1)
	for daysOut := -400; daysOut <= 1000; daysOut += 7 {
		score := planning.PriorityScore(now.AddDays(daysOut), now)
		if score < 0 || score > 10 {
			t.Fatalf("PriorityScore(now+%dd) = %d, outside [0, 10]", daysOut, score)
		}
	}
}
