package rules

// ResolveBracket returns the index of the first bracket covering days.
//
// Brackets of a validated rule never overlap, so at most one can match.
// Unvalidated input is still resolved deterministically: the earliest
// covering bracket wins. ok is false when days falls into a gap, lies
// outside every bracket or is not positive.
func ResolveBracket(brackets []Bracket, days int) (index int, ok bool) {
	if days < 1 {
		return -1, false
	}
	for i, b := range brackets {
		if b.Covers(days) {
			return i, true
		}
	}
	return -1, false
}
