package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by collection edits.
var (
	ErrRuleNotFound    = errors.New("rule not found")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Collection edits never modify their input. Each one returns a fresh slice
// whose priorities have been rewritten to 1..N in list order, so callers can
// publish the result with a single reference swap.

// NewRuleID returns a fresh opaque rule identifier.
func NewRuleID() string {
	return "rule_" + uuid.NewString()
}

// ReindexPriorities returns a copy of rs with Priority set to position+1.
// The order of rs is preserved exactly; only Priority changes. Reindexing
// an already dense collection yields an equal collection.
//
// Duplicate ids are rejected: a collection that cannot be addressed by id
// is ambiguous and is not repaired here.
func ReindexPriorities(rs []PricingRule) ([]PricingRule, error) {
	seen := make(map[string]struct{}, len(rs))
	out := make([]PricingRule, len(rs))
	for i, r := range rs {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRuleID, r.ID)
		}
		seen[r.ID] = struct{}{}
		r.Priority = i + 1
		out[i] = r
	}
	return out, nil
}

// SortByPriority returns a copy of rs ordered by ascending priority.
// Equal priorities keep their relative input order.
func SortByPriority(rs []PricingRule) []PricingRule {
	out := cloneSlice(rs)
	if out == nil {
		out = []PricingRule{}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Insert appends r as the lowest-precedence rule. An empty id is replaced by
// NewRuleID and an empty status defaults to Enabled.
func Insert(rs []PricingRule, r PricingRule) ([]PricingRule, error) {
	r = r.Clone()
	if strings.TrimSpace(r.ID) == "" {
		r.ID = NewRuleID()
	}
	if r.Status == "" {
		r.Status = StatusEnabled
	}
	next := make([]PricingRule, 0, len(rs)+1)
	next = append(next, rs...)
	next = append(next, r)
	return ReindexPriorities(next)
}

// Remove drops the rule with the given id. Removing an unknown id is not an
// error; the collection is still returned reindexed.
func Remove(rs []PricingRule, id string) ([]PricingRule, error) {
	next := make([]PricingRule, 0, len(rs))
	for _, r := range rs {
		if r.ID != id {
			next = append(next, r)
		}
	}
	return ReindexPriorities(next)
}

// Move relocates the rule at index from to index to, shifting the rules in
// between. It mirrors a drag-and-drop reorder of the rule list.
func Move(rs []PricingRule, from, to int) ([]PricingRule, error) {
	if from < 0 || from >= len(rs) {
		return nil, fmt.Errorf("%w: from=%d, len=%d", ErrIndexOutOfRange, from, len(rs))
	}
	if to < 0 || to >= len(rs) {
		return nil, fmt.Errorf("%w: to=%d, len=%d", ErrIndexOutOfRange, to, len(rs))
	}

	next := make([]PricingRule, 0, len(rs))
	next = append(next, rs[:from]...)
	next = append(next, rs[from+1:]...)

	moved := rs[from]
	next = append(next, PricingRule{})
	copy(next[to+1:], next[to:])
	next[to] = moved
	return ReindexPriorities(next)
}

// IndexOf returns the list position of the rule with the given id, or -1.
func IndexOf(rs []PricingRule, id string) int {
	for i, r := range rs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Replace swaps in an edited version of an existing rule, keeping its place
// in the list.
func Replace(rs []PricingRule, edited PricingRule) ([]PricingRule, error) {
	idx := IndexOf(rs, edited.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, edited.ID)
	}
	next := cloneSlice(rs)
	next[idx] = edited.Clone()
	return ReindexPriorities(next)
}

// ToggleStatus flips the rule between Enabled and Disabled.
func ToggleStatus(rs []PricingRule, id string) ([]PricingRule, error) {
	idx := IndexOf(rs, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	next := cloneSlice(rs)
	if next[idx].Status == StatusEnabled {
		next[idx].Status = StatusDisabled
	} else {
		next[idx].Status = StatusEnabled
	}
	return ReindexPriorities(next)
}

// FilterByName returns the rules whose name contains term, ignoring case.
// An empty term returns every rule.
func FilterByName(rs []PricingRule, term string) []PricingRule {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]PricingRule, 0, len(rs))
	for _, r := range rs {
		if term == "" || strings.Contains(strings.ToLower(r.Name), term) {
			out = append(out, r)
		}
	}
	return out
}

// SetPrice returns a copy of r with the rate-grid cell (sippCode, b) set to
// price. Rows are found by normalized SIPP code and a missing row is created
// in that form. b must be one of the
// rule's duration brackets, since those define the grid's columns.
func SetPrice(r PricingRule, sippCode string, b Bracket, price decimal.Decimal) (PricingRule, error) {
	sippCode = NormalizeSIPP(sippCode)
	if sippCode == "" {
		return PricingRule{}, fmt.Errorf("%w: sipp code must not be empty", ErrInvalidPrice)
	}
	if price.IsNegative() {
		return PricingRule{}, fmt.Errorf("%w: negative price %s", ErrInvalidPrice, price)
	}
	column := false
	for _, rb := range r.Conditions.RentalDurationBrackets {
		if rb == b {
			column = true
			break
		}
	}
	if !column {
		return PricingRule{}, fmt.Errorf("%w: rule %q has no bracket {%d,%d}", ErrInvalidBracket, r.ID, b.From, b.To)
	}

	out := r.Clone()
	row := -1
	for i, p := range out.Pricing {
		if NormalizeSIPP(p.SIPPCode) == sippCode {
			row = i
			break
		}
	}
	if row < 0 {
		out.Pricing = append(out.Pricing, CarModelPrice{SIPPCode: sippCode})
		row = len(out.Pricing) - 1
	}

	prices := out.Pricing[row].Prices
	for i, p := range prices {
		if p.Bracket() == b {
			prices[i].Price = price
			return out, nil
		}
	}
	out.Pricing[row].Prices = append(prices, DurationPrice{From: b.From, To: b.To, Price: price})
	return out, nil
}
