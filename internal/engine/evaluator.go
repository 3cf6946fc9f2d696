package engine

import (
	"time"

	"github.com/TimurManjosov/gopricer/internal/rules"
)

// SelectRule picks the single rule that prices ctx.
//
// A rule is eligible when it is Enabled, its lifecycle recomputed for now
// is Active and its conditions match ctx. The eligible rule with the
// lowest priority wins. Equal priorities are a data-integrity problem:
// the earliest rule in collection order wins and the colliding ids are
// reported in TiedRuleIDs.
//
// No eligible rule is a regular outcome reported as ReasonNoMatch.
// loc sets the calendar day boundary for now (UTC when nil).
func SelectRule(rs []rules.PricingRule, ctx BookingContext, now time.Time, loc *time.Location) Selection {
	result := Selection{Reason: ReasonNoMatch}

	winner := -1
	var tied []string
	for i := range rs {
		if ruleOutcome(rs[i], ctx, now, loc) != OutcomeEligible {
			continue
		}
		result.Candidates++

		switch {
		case winner < 0 || rs[i].Priority < rs[winner].Priority:
			winner = i
			tied = tied[:0]
		case rs[i].Priority == rs[winner].Priority:
			if len(tied) == 0 {
				tied = append(tied, rs[winner].ID)
			}
			tied = append(tied, rs[i].ID)
		}
	}

	if winner < 0 {
		return result
	}

	rule := rs[winner]
	result.Rule = &rule
	result.Reason = ReasonRuleMatch
	if len(tied) > 0 {
		result.TiedRuleIDs = append([]string(nil), tied...)
	}
	return result
}

// ResolvePrice looks up the price of sippCode for a rental of days in rule.
//
// The duration is first resolved against the rule's own brackets; the
// matching (from, to) pair is then looked up in the car model's price list.
// Partial rate grids are valid and degrade to a no-price result.
func ResolvePrice(rule rules.PricingRule, sippCode string, days int) PriceLookup {
	code := rules.NormalizeSIPP(sippCode)
	rows := make([]rules.CarModelPrice, 0, 1)
	for _, row := range rule.Pricing {
		if rules.NormalizeSIPP(row.SIPPCode) == code {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return PriceLookup{Reason: ReasonNoCarModel}
	}

	idx, ok := rules.ResolveBracket(rule.Conditions.RentalDurationBrackets, days)
	if !ok {
		return PriceLookup{Reason: ReasonNoBracket}
	}
	bracket := rule.Conditions.RentalDurationBrackets[idx]

	for _, row := range rows {
		for _, p := range row.Prices {
			if p.Bracket() == bracket {
				return PriceLookup{Price: p.Price, Bracket: &bracket, Reason: ReasonPriced}
			}
		}
	}
	return PriceLookup{Bracket: &bracket, Reason: ReasonNoPrice}
}

// QuotePrice selects the applicable rule for ctx and resolves the price of
// sippCode for the booking's duration.
func QuotePrice(rs []rules.PricingRule, ctx BookingContext, sippCode string, now time.Time, loc *time.Location) Quote {
	q := Quote{
		SIPPCode:     sippCode,
		DurationDays: ctx.Duration(),
		Selection:    SelectRule(rs, ctx, now, loc),
	}
	if !q.Selection.Found() {
		q.Price = PriceLookup{Reason: ReasonNoMatch}
		return q
	}
	q.Price = ResolvePrice(*q.Selection.Rule, sippCode, q.DurationDays)
	return q
}

// Explain records, for every rule in collection order, why it was skipped
// or whether it won.
func Explain(rs []rules.PricingRule, ctx BookingContext, now time.Time, loc *time.Location) []RuleTrace {
	sel := SelectRule(rs, ctx, now, loc)
	traces := make([]RuleTrace, 0, len(rs))
	for _, r := range rs {
		trace := RuleTrace{RuleID: r.ID, Name: r.Name, Priority: r.Priority}
		trace.Outcome = ruleOutcome(r, ctx, now, loc)
		if trace.Outcome == OutcomeMismatch {
			trace.Axis, _ = FirstMismatch(r.Conditions, ctx)
		}
		if trace.Outcome == OutcomeEligible && sel.Found() && sel.Rule.ID == r.ID {
			trace.Outcome = OutcomeSelected
		}
		traces = append(traces, trace)
	}
	return traces
}

// ruleOutcome applies the gates of SelectRule in order: status, lifecycle,
// then conditions.
func ruleOutcome(r rules.PricingRule, ctx BookingContext, now time.Time, loc *time.Location) Outcome {
	if !r.Enabled() {
		return OutcomeDisabled
	}
	switch rules.LifecycleOf(r, now, loc) {
	case rules.LifecycleUpcoming:
		return OutcomeUpcoming
	case rules.LifecycleExpired:
		return OutcomeExpired
	}
	if !MatchesConditions(r.Conditions, ctx) {
		return OutcomeMismatch
	}
	return OutcomeEligible
}
