package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/TimurManjosov/gopricer/internal/rules"
)

// Reason represents the outcome of a selection or price lookup.
type Reason string

const (
	ReasonRuleMatch  Reason = "RULE_MATCH"
	ReasonNoMatch    Reason = "NO_MATCH"
	ReasonPriced     Reason = "PRICED"
	ReasonNoCarModel Reason = "NO_CAR_MODEL"
	ReasonNoBracket  Reason = "NO_BRACKET"
	ReasonNoPrice    Reason = "NO_PRICE"
)

// BookingContext contains the facts of one prospective rental.
//
// DurationDays takes precedence over the rental dates for bracket lookups,
// even when the two disagree. Callers holding both should compare them
// with DateSpan first.
type BookingContext struct {
	StoreID      string     `json:"storeId" yaml:"storeId"`
	ChannelID    string     `json:"channelId" yaml:"channelId"`
	Country      string     `json:"country" yaml:"country"`
	RentalStart  rules.Date `json:"rentalStart" yaml:"rentalStart"`
	RentalEnd    rules.Date `json:"rentalEnd,omitempty" yaml:"rentalEnd,omitempty"`
	BookingDate  rules.Date `json:"bookingDate,omitempty" yaml:"bookingDate,omitempty"`
	DurationDays int        `json:"durationDays,omitempty" yaml:"durationDays,omitempty"`
	Urgent       bool       `json:"urgent,omitempty" yaml:"urgent,omitempty"`
}

// Duration returns the rental length in days. An explicit DurationDays wins;
// otherwise it is DateSpan. Zero means unknown.
func (c BookingContext) Duration() int {
	if c.DurationDays > 0 {
		return c.DurationDays
	}
	return c.DateSpan()
}

// DateSpan returns the rental length implied by RentalStart and RentalEnd,
// with a one-day minimum for same-day returns. It is zero when either date
// is missing or the return precedes the pickup, so such a booking never
// lands in a duration bracket.
func (c BookingContext) DateSpan() int {
	if c.RentalStart.IsZero() || c.RentalEnd.IsZero() || c.RentalEnd.Before(c.RentalStart) {
		return 0
	}
	if days := c.RentalStart.DaysUntil(c.RentalEnd); days > 1 {
		return days
	}
	return 1
}

// RentalWeekdays returns the distinct weekdays touched by the rental,
// pickup and return days included, in calendar order from pickup.
func (c BookingContext) RentalWeekdays() []time.Weekday {
	if c.RentalStart.IsZero() {
		return nil
	}
	span := 0
	if !c.RentalEnd.IsZero() && c.RentalEnd.After(c.RentalStart) {
		span = c.RentalStart.DaysUntil(c.RentalEnd)
	}
	if span > 6 {
		span = 6
	}
	out := make([]time.Weekday, 0, span+1)
	for i := 0; i <= span; i++ {
		out = append(out, c.RentalStart.AddDays(i).Weekday())
	}
	return out
}

// Selection is the result of SelectRule.
type Selection struct {
	Rule       *rules.PricingRule `json:"rule,omitempty"`
	Reason     Reason             `json:"reason"`
	Candidates int                `json:"candidates"`
	// TiedRuleIDs lists every eligible rule sharing the winning priority,
	// in collection order. It is only set when priorities collide, which
	// a validated collection never allows.
	TiedRuleIDs []string `json:"tiedRuleIds,omitempty"`
}

// Found reports whether a rule was selected.
func (s Selection) Found() bool { return s.Rule != nil }

// PriceLookup is the result of ResolvePrice.
type PriceLookup struct {
	Price   decimal.Decimal `json:"price"`
	Bracket *rules.Bracket  `json:"bracket,omitempty"`
	Reason  Reason          `json:"reason"`
}

// Found reports whether a price was defined. A zero Price with Found()
// false means "no price", never "free".
func (p PriceLookup) Found() bool { return p.Reason == ReasonPriced }

// Quote combines rule selection and price resolution for one car model.
type Quote struct {
	SIPPCode     string      `json:"sippCode"`
	DurationDays int         `json:"durationDays"`
	Selection    Selection   `json:"selection"`
	Price        PriceLookup `json:"price"`
}

// Found reports whether the quote carries a usable price.
func (q Quote) Found() bool { return q.Selection.Found() && q.Price.Found() }

// Outcome is the per-rule verdict recorded by Explain.
type Outcome string

const (
	OutcomeSelected Outcome = "SELECTED"
	OutcomeEligible Outcome = "ELIGIBLE"
	OutcomeDisabled Outcome = "DISABLED"
	OutcomeUpcoming Outcome = "UPCOMING"
	OutcomeExpired  Outcome = "EXPIRED"
	OutcomeMismatch Outcome = "CONDITION_MISMATCH"
)

// RuleTrace explains how one rule fared against a booking.
type RuleTrace struct {
	RuleID   string  `json:"ruleId"`
	Name     string  `json:"name"`
	Priority int     `json:"priority"`
	Outcome  Outcome `json:"outcome"`
	Axis     string  `json:"axis,omitempty"` // failing condition axis for CONDITION_MISMATCH
}
