package planning

// =============================================================================
// PRIORITY SCORER - Urgency score for reporting and tie-breaking
// =============================================================================

// PriorityScore maps days-until-expiry to an urgency score in [0, 10].
// Already-expired certifications score 10; near-term expiries fall into
// fixed bands; distant expiries taper smoothly toward 1.
//
// Pure and total: identical arguments always yield identical scores. The
// clock is an explicit parameter, never read from the environment.
func PriorityScore(expiry, now TimePoint) int {
	days := DaysBetween(now, expiry)
	switch {
	case days < 0:
		return 10
	case days <= 30:
		return 9
	case days <= 60:
		return 7
	case days <= 90:
		return 5
	default:
		// floor(10 - days/30), never below 1. With days > 0 this is
		// 10 - ceil(days/30) in integer arithmetic.
		score := 10 - (days+29)/30
		if score < 1 {
			return 1
		}
		return score
	}
}
