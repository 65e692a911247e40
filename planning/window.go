package planning

// =============================================================================
// RENEWAL WINDOW - Feasible date range for renewing a certification
// =============================================================================

// RenewalWindow is the feasible interval [expiry - grace, expiry] within
// which a renewal must be planned. Start <= End always holds because grace
// periods are never negative.
type RenewalWindow struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the date falls within [Start, End].
func (w RenewalWindow) Contains(t TimePoint) bool {
	return t.AfterOrEqual(w.Start) && t.BeforeOrEqual(w.End)
}

// Clamp snaps a date into the window: dates before Start become Start,
// dates after End become End, dates inside pass through unchanged.
func (w RenewalWindow) Clamp(t TimePoint) TimePoint {
	if t.Before(w.Start) {
		return w.Start
	}
	if t.After(w.End) {
		return w.End
	}
	return t
}

func (w RenewalWindow) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}

// =============================================================================
// WINDOW CALCULATOR
// =============================================================================

// WindowCalculator derives renewal windows from expiry dates and the grace
// period table. Pure; no failure modes.
type WindowCalculator struct {
	Grace *GraceTable
}

// Compute returns [expiry - graceDays(category), expiry].
func (wc WindowCalculator) Compute(expiry TimePoint, cat Category) RenewalWindow {
	return RenewalWindow{
		Start: expiry.AddDays(-wc.Grace.Days(cat)),
		End:   expiry,
	}
}
