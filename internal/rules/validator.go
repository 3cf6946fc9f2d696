package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxRuleIDLength is the maximum length for rule ids
	MaxRuleIDLength = 64
	// MaxRuleNameLength is the maximum length for rule names, in characters
	MaxRuleNameLength = 200
)

// ruleIDPattern matches alphanumeric characters, underscores, and hyphens
var ruleIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Sentinel errors returned by ValidateRule and ValidateRuleSet. Each one
// names the invariant that was violated.
var (
	ErrInvalidRule         = errors.New("invalid rule")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInvalidWeekday      = errors.New("invalid weekday")
	ErrInvalidOrigin       = errors.New("invalid customer origin")
	ErrInvalidBracket      = errors.New("invalid duration bracket")
	ErrOverlappingBrackets = errors.New("overlapping duration brackets")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrDuplicatePrice      = errors.New("duplicate price entry")
	ErrDuplicateRuleID     = errors.New("duplicate rule id")
	ErrDuplicatePriority   = errors.New("duplicate priority")
	ErrPriorityGap         = errors.New("priorities are not dense")
	ErrUnknownReference    = errors.New("unknown reference")
)

// validStatuses is the set of recognised rule statuses.
var validStatuses = map[Status]struct{}{
	StatusEnabled:  {},
	StatusDisabled: {},
}

// ValidateRule performs strict validation of a single rule.
// It is a pure function: it never mutates r and never repairs data.
// The first violation found is returned.
func ValidateRule(r PricingRule) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: rule id must not be empty", ErrInvalidRule)
	}
	if len(r.ID) > MaxRuleIDLength || !ruleIDPattern.MatchString(r.ID) {
		return fmt.Errorf("%w: rule id %q must be at most %d letters, digits, '_' or '-'", ErrInvalidRule, r.ID, MaxRuleIDLength)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: rule %q name must not be empty", ErrInvalidRule, r.ID)
	}
	if utf8.RuneCountInString(r.Name) > MaxRuleNameLength {
		return fmt.Errorf("%w: rule %q name exceeds %d characters", ErrInvalidRule, r.ID, MaxRuleNameLength)
	}
	if r.Priority < 1 {
		return fmt.Errorf("%w: rule %q priority must be positive, got %d", ErrInvalidRule, r.ID, r.Priority)
	}
	if _, ok := validStatuses[r.Status]; !ok {
		return fmt.Errorf("%w: rule %q status %q is not supported", ErrInvalidStatus, r.ID, r.Status)
	}
	if err := validateCondition(r.ID, r.Conditions); err != nil {
		return err
	}
	return validatePricing(r.ID, r.Pricing)
}

func validateCondition(id string, c Condition) error {
	if err := validateDateRange(id, "rentalDateRange", c.RentalDateRange); err != nil {
		return err
	}
	if err := validateDateRange(id, "bookingDateRange", c.BookingDateRange); err != nil {
		return err
	}

	for _, wd := range c.RentalDaysOfWeek {
		if wd < 0 || wd > 6 {
			return fmt.Errorf("%w: rule %q weekday %d is outside 0..6", ErrInvalidWeekday, id, wd)
		}
	}

	if o := c.CustomerOrigin; o != nil {
		if o.Condition != OriginInclude && o.Condition != OriginExclude {
			return fmt.Errorf("%w: rule %q condition %q must be Include or Exclude", ErrInvalidOrigin, id, o.Condition)
		}
	}

	return ValidateBrackets(id, c.RentalDurationBrackets)
}

func validateDateRange(id, field string, r *DateRange) error {
	if r == nil {
		return nil
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: rule %q %s needs both start and end", ErrInvalidDateRange, id, field)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: rule %q %s ends (%s) before it starts (%s)", ErrInvalidDateRange, id, field, r.End, r.Start)
	}
	return nil
}

// ValidateBrackets checks that every bracket is well formed and that no two
// brackets of the same rule overlap. Gaps are allowed.
func ValidateBrackets(id string, brackets []Bracket) error {
	for i, b := range brackets {
		if b.From < 1 || b.To < b.From {
			return fmt.Errorf("%w: rule %q bracket[%d] {%d,%d} must satisfy 1 <= from <= to", ErrInvalidBracket, id, i, b.From, b.To)
		}
	}

	sorted := cloneSlice(brackets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Overlaps(sorted[i]) {
			return fmt.Errorf("%w: rule %q brackets {%d,%d} and {%d,%d}", ErrOverlappingBrackets, id,
				sorted[i-1].From, sorted[i-1].To, sorted[i].From, sorted[i].To)
		}
	}
	return nil
}

func validatePricing(id string, pricing []CarModelPrice) error {
	type cell struct {
		sipp     string
		from, to int
	}
	seen := make(map[cell]struct{})

	for i, row := range pricing {
		if strings.TrimSpace(row.SIPPCode) == "" {
			return fmt.Errorf("%w: rule %q pricing[%d] sipp code must not be empty", ErrInvalidPrice, id, i)
		}
		for _, p := range row.Prices {
			if p.From < 1 || p.To < p.From {
				return fmt.Errorf("%w: rule %q %s cell {%d,%d} must satisfy 1 <= from <= to", ErrInvalidPrice, id, row.SIPPCode, p.From, p.To)
			}
			if p.Price.IsNegative() {
				return fmt.Errorf("%w: rule %q %s cell {%d,%d} has negative price %s", ErrInvalidPrice, id, row.SIPPCode, p.From, p.To, p.Price)
			}
			key := cell{sipp: NormalizeSIPP(row.SIPPCode), from: p.From, to: p.To}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("%w: rule %q %s cell {%d,%d}", ErrDuplicatePrice, id, row.SIPPCode, p.From, p.To)
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

// ValidateRuleSet validates every rule and the collection-level invariants:
// unique ids and priorities forming exactly 1..N. All findings are joined
// so callers see the full list of problems at once.
func ValidateRuleSet(rs []PricingRule) error {
	var errs []error

	ids := make(map[string]struct{}, len(rs))
	priorities := make(map[int]string, len(rs))
	for _, r := range rs {
		if err := ValidateRule(r); err != nil {
			errs = append(errs, err)
		}
		if _, dup := ids[r.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateRuleID, r.ID))
		}
		ids[r.ID] = struct{}{}

		if other, dup := priorities[r.Priority]; dup {
			errs = append(errs, fmt.Errorf("%w: rules %q and %q both have priority %d", ErrDuplicatePriority, other, r.ID, r.Priority))
			continue
		}
		priorities[r.Priority] = r.ID
	}

	for p := 1; p <= len(rs); p++ {
		if _, ok := priorities[p]; !ok {
			errs = append(errs, fmt.Errorf("%w: priority %d is missing for %d rules", ErrPriorityGap, p, len(rs)))
			break
		}
	}

	return errors.Join(errs...)
}

// Catalog holds the reference data rules point at. An empty catalog list
// disables the corresponding reference check.
type Catalog struct {
	Stores    []Store    `json:"stores,omitempty" yaml:"stores,omitempty"`
	Channels  []Channel  `json:"channels,omitempty" yaml:"channels,omitempty"`
	CarModels []CarModel `json:"carModels,omitempty" yaml:"carModels,omitempty"`
}

// ValidateReferences checks that store, channel and SIPP references of every
// rule exist in the catalog.
func ValidateReferences(rs []PricingRule, cat Catalog) error {
	stores := idSet(cat.Stores, func(s Store) string { return s.ID })
	channels := idSet(cat.Channels, func(c Channel) string { return c.ID })
	models := idSet(cat.CarModels, func(m CarModel) string { return NormalizeSIPP(m.SIPPCode) })

	var errs []error
	for _, r := range rs {
		errs = appendUnknown(errs, r.ID, "store", r.Conditions.ApplicableStores, stores)
		errs = appendUnknown(errs, r.ID, "channel", r.Conditions.SourceChannels, channels)
		codes := make([]string, 0, len(r.Pricing))
		for _, p := range r.Pricing {
			codes = append(codes, NormalizeSIPP(p.SIPPCode))
		}
		errs = appendUnknown(errs, r.ID, "car model", codes, models)
	}
	return errors.Join(errs...)
}

func idSet[T any](items []T, key func(T) string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[key(it)] = struct{}{}
	}
	return set
}

func appendUnknown(errs []error, ruleID, kind string, refs []string, known map[string]struct{}) []error {
	if known == nil {
		return errs
	}
	for _, ref := range refs {
		if _, ok := known[ref]; !ok {
			errs = append(errs, fmt.Errorf("%w: rule %q references %s %q", ErrUnknownReference, ruleID, kind, ref))
		}
	}
	return errs
}
