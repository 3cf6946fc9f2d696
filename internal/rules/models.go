package rules

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the operator-controlled on/off switch of a rule.
type Status string

const (
	StatusEnabled  Status = "Enabled"
	StatusDisabled Status = "Disabled"
)

// Lifecycle is the temporal state of a rule relative to its rental date window.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "Active"
	LifecycleUpcoming Lifecycle = "Upcoming"
	LifecycleExpired  Lifecycle = "Expired"
)

// OriginCondition selects whether CustomerOrigin countries are allowed or excluded.
type OriginCondition string

const (
	OriginInclude OriginCondition = "Include"
	OriginExclude OriginCondition = "Exclude"
)

// DateRange is an inclusive calendar-day window.
type DateRange struct {
	Start Date `json:"start" yaml:"start"`
	End   Date `json:"end" yaml:"end"`
}

// Contains reports whether d falls within the range, both ends included.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// CustomerOrigin restricts a rule by the customer's country.
type CustomerOrigin struct {
	Condition OriginCondition `json:"condition" yaml:"condition"`
	Countries []string        `json:"countries" yaml:"countries"`
}

// Bracket is an inclusive rental-length range in days, 1-indexed.
type Bracket struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// Covers reports whether days lies within the bracket.
func (b Bracket) Covers(days int) bool {
	return b.From <= days && days <= b.To
}

// Overlaps reports whether the two brackets share at least one day.
func (b Bracket) Overlaps(other Bracket) bool {
	return b.From <= other.To && other.From <= b.To
}

// Condition is the matching predicate of a rule.
// Every axis is optional; an absent or empty axis places no constraint.
// Axes are combined with AND semantics.
type Condition struct {
	BookingDateRange       *DateRange      `json:"bookingDateRange,omitempty" yaml:"bookingDateRange,omitempty"`
	RentalDateRange        *DateRange      `json:"rentalDateRange,omitempty" yaml:"rentalDateRange,omitempty"`
	RentalDaysOfWeek       []time.Weekday  `json:"rentalDaysOfWeek,omitempty" yaml:"rentalDaysOfWeek,omitempty"` // 0 = Sunday
	ApplicableStores       []string        `json:"applicableStores" yaml:"applicableStores"`
	SourceChannels         []string        `json:"sourceChannels" yaml:"sourceChannels"`
	CustomerOrigin         *CustomerOrigin `json:"customerOrigin,omitempty" yaml:"customerOrigin,omitempty"`
	IsUrgent               *bool           `json:"isUrgent,omitempty" yaml:"isUrgent,omitempty"`
	RentalDurationBrackets []Bracket       `json:"rentalDurationBrackets" yaml:"rentalDurationBrackets"`
}

// DurationPrice is one cell of a rule's rate grid.
type DurationPrice struct {
	From  int             `json:"from" yaml:"from"`
	To    int             `json:"to" yaml:"to"`
	Price decimal.Decimal `json:"price" yaml:"price"`
}

// Bracket returns the duration key of the cell.
func (p DurationPrice) Bracket() Bracket {
	return Bracket{From: p.From, To: p.To}
}

// NormalizeSIPP returns the canonical form of a SIPP code. Codes are
// compared in this form everywhere.
func NormalizeSIPP(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CarModelPrice is one row of a rule's rate grid, keyed by SIPP code.
type CarModelPrice struct {
	SIPPCode string          `json:"sippCode" yaml:"sippCode"`
	Prices   []DurationPrice `json:"prices" yaml:"prices"`
}

// PricingRule is a named, prioritized condition to price mapping.
//
// Lifecycle is an advisory display value. Decisions always recompute it
// with ClassifyLifecycle.
type PricingRule struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Priority   int             `json:"priority" yaml:"priority"`
	Status     Status          `json:"status" yaml:"status"`
	Lifecycle  Lifecycle       `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty"`
	Conditions Condition       `json:"conditions" yaml:"conditions"`
	Pricing    []CarModelPrice `json:"pricing" yaml:"pricing"`
}

// Enabled reports whether the rule is switched on.
func (r PricingRule) Enabled() bool {
	return r.Status == StatusEnabled
}

// Clone returns a deep copy so callers can edit without touching shared state.
func (r PricingRule) Clone() PricingRule {
	out := r
	c := r.Conditions
	if c.BookingDateRange != nil {
		v := *c.BookingDateRange
		out.Conditions.BookingDateRange = &v
	}
	if c.RentalDateRange != nil {
		v := *c.RentalDateRange
		out.Conditions.RentalDateRange = &v
	}
	if c.CustomerOrigin != nil {
		v := CustomerOrigin{Condition: c.CustomerOrigin.Condition, Countries: cloneSlice(c.CustomerOrigin.Countries)}
		out.Conditions.CustomerOrigin = &v
	}
	if c.IsUrgent != nil {
		v := *c.IsUrgent
		out.Conditions.IsUrgent = &v
	}
	out.Conditions.RentalDaysOfWeek = cloneSlice(c.RentalDaysOfWeek)
	out.Conditions.ApplicableStores = cloneSlice(c.ApplicableStores)
	out.Conditions.SourceChannels = cloneSlice(c.SourceChannels)
	out.Conditions.RentalDurationBrackets = cloneSlice(c.RentalDurationBrackets)

	if r.Pricing != nil {
		out.Pricing = make([]CarModelPrice, len(r.Pricing))
		for i, p := range r.Pricing {
			out.Pricing[i] = CarModelPrice{SIPPCode: p.SIPPCode, Prices: cloneSlice(p.Prices)}
		}
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Store, Channel and CarModel are reference catalogs edited alongside rules.

type Store struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Channel struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type CarModel struct {
	SIPPCode string `json:"sippCode" yaml:"sippCode"`
	Name     string `json:"name" yaml:"name"`
	Group    string `json:"group" yaml:"group"`
}
