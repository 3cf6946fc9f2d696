package engine

import (
	"slices"
	"strings"

	"github.com/TimurManjosov/gopricer/internal/rules"
)

// Condition axes, as named in traces.
const (
	AxisRentalDateRange  = "rentalDateRange"
	AxisBookingDateRange = "bookingDateRange"
	AxisRentalDaysOfWeek = "rentalDaysOfWeek"
	AxisStores           = "applicableStores"
	AxisChannels         = "sourceChannels"
	AxisCustomerOrigin   = "customerOrigin"
	AxisUrgency          = "isUrgent"
	AxisDurationBrackets = "rentalDurationBrackets"
)

// conditionCheck evaluates one axis of a condition. An axis with no
// constraint must report true.
type conditionCheck struct {
	axis  string
	match func(rules.Condition, BookingContext) bool
}

// conditionChecks is ordered cheapest first. Order is not observable
// since all axes are ANDed.
var conditionChecks = []conditionCheck{
	{axis: AxisStores, match: matchStores},
	{axis: AxisChannels, match: matchChannels},
	{axis: AxisUrgency, match: matchUrgency},
	{axis: AxisCustomerOrigin, match: matchCustomerOrigin},
	{axis: AxisDurationBrackets, match: matchDuration},
	{axis: AxisRentalDateRange, match: matchRentalDates},
	{axis: AxisBookingDateRange, match: matchBookingDates},
	{axis: AxisRentalDaysOfWeek, match: matchDaysOfWeek},
}

// MatchesConditions reports whether every axis of cond accepts ctx.
// A condition with no constraints matches every booking.
func MatchesConditions(cond rules.Condition, ctx BookingContext) bool {
	_, ok := FirstMismatch(cond, ctx)
	return ok
}

// FirstMismatch returns the first axis of cond that rejects ctx.
// ok is true when all axes accept.
func FirstMismatch(cond rules.Condition, ctx BookingContext) (axis string, ok bool) {
	for _, check := range conditionChecks {
		if !check.match(cond, ctx) {
			return check.axis, false
		}
	}
	return "", true
}

func matchStores(c rules.Condition, ctx BookingContext) bool {
	return len(c.ApplicableStores) == 0 || slices.Contains(c.ApplicableStores, ctx.StoreID)
}

func matchChannels(c rules.Condition, ctx BookingContext) bool {
	return len(c.SourceChannels) == 0 || slices.Contains(c.SourceChannels, ctx.ChannelID)
}

func matchUrgency(c rules.Condition, ctx BookingContext) bool {
	return c.IsUrgent == nil || *c.IsUrgent == ctx.Urgent
}

// Country codes are compared case-insensitively.
func matchCustomerOrigin(c rules.Condition, ctx BookingContext) bool {
	origin := c.CustomerOrigin
	if origin == nil {
		return true
	}
	listed := slices.ContainsFunc(origin.Countries, func(code string) bool {
		return strings.EqualFold(strings.TrimSpace(code), strings.TrimSpace(ctx.Country))
	})
	if origin.Condition == rules.OriginExclude {
		return !listed
	}
	return listed
}

func matchDuration(c rules.Condition, ctx BookingContext) bool {
	if len(c.RentalDurationBrackets) == 0 {
		return true
	}
	_, ok := rules.ResolveBracket(c.RentalDurationBrackets, ctx.Duration())
	return ok
}

// The rental window is checked against the pickup day.
func matchRentalDates(c rules.Condition, ctx BookingContext) bool {
	if c.RentalDateRange == nil {
		return true
	}
	return !ctx.RentalStart.IsZero() && c.RentalDateRange.Contains(ctx.RentalStart)
}

func matchBookingDates(c rules.Condition, ctx BookingContext) bool {
	if c.BookingDateRange == nil {
		return true
	}
	return !ctx.BookingDate.IsZero() && c.BookingDateRange.Contains(ctx.BookingDate)
}

// Every day the rental spans must be an allowed weekday.
func matchDaysOfWeek(c rules.Condition, ctx BookingContext) bool {
	if len(c.RentalDaysOfWeek) == 0 {
		return true
	}
	days := ctx.RentalWeekdays()
	if len(days) == 0 {
		return false
	}
	for _, d := range days {
		if !slices.Contains(c.RentalDaysOfWeek, d) {
			return false
		}
	}
	return true
}
