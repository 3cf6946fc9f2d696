package rules

import "time"

// ClassifyLifecycle derives a rule's lifecycle from its rental date window.
//
// The comparison happens at day granularity: now is converted to its
// calendar day in loc (UTC when nil) and both window ends are inclusive,
// so a rule stays Active for the whole of its last day.
//
//   - no window        → Active
//   - today < start    → Upcoming
//   - today > end      → Expired
//   - otherwise        → Active
func ClassifyLifecycle(rng *DateRange, now time.Time, loc *time.Location) Lifecycle {
	if rng == nil {
		return LifecycleActive
	}
	today := DateOf(now, loc)
	switch {
	case !rng.Start.IsZero() && today.Before(rng.Start):
		return LifecycleUpcoming
	case !rng.End.IsZero() && today.After(rng.End):
		return LifecycleExpired
	default:
		return LifecycleActive
	}
}

// LifecycleOf is ClassifyLifecycle applied to a rule's rental window.
func LifecycleOf(r PricingRule, now time.Time, loc *time.Location) Lifecycle {
	return ClassifyLifecycle(r.Conditions.RentalDateRange, now, loc)
}

// RefreshLifecycles returns a copy of rs with the advisory Lifecycle field
// recomputed for display.
func RefreshLifecycles(rs []PricingRule, now time.Time, loc *time.Location) []PricingRule {
	out := make([]PricingRule, len(rs))
	for i, r := range rs {
		r.Lifecycle = LifecycleOf(r, now, loc)
		out[i] = r
	}
	return out
}
