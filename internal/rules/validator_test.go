package rules

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validRule() PricingRule {
	urgent := true
	return PricingRule{
		ID:       "rule_1",
		Name:     "Tokyo Peak Season - HK Customers",
		Priority: 1,
		Status:   StatusEnabled,
		Conditions: Condition{
			RentalDateRange:  &DateRange{Start: MustParseDate("2025-07-01"), End: MustParseDate("2025-08-31")},
			ApplicableStores: []string{"store_1", "store_2"},
			SourceChannels:   []string{"channel_2"},
			CustomerOrigin:   &CustomerOrigin{Condition: OriginInclude, Countries: []string{"HK"}},
			IsUrgent:         &urgent,
			RentalDurationBrackets: []Bracket{
				{From: 1, To: 1}, {From: 2, To: 5}, {From: 6, To: 15},
			},
		},
		Pricing: []CarModelPrice{
			{SIPPCode: "CDAR", Prices: []DurationPrice{
				{From: 1, To: 1, Price: decimal.NewFromInt(120)},
				{From: 2, To: 5, Price: decimal.NewFromInt(110)},
				{From: 6, To: 15, Price: decimal.NewFromInt(100)},
			}},
		},
	}
}

func TestValidateRule_Success(t *testing.T) {
	tests := []struct {
		name string
		rule PricingRule
	}{
		{name: "fully specified rule", rule: validRule()},
		{name: "minimal rule", rule: PricingRule{ID: "r", Name: "n", Priority: 3, Status: StatusDisabled}},
		{
			name: "brackets with gap",
			rule: func() PricingRule {
				r := validRule()
				r.Conditions.RentalDurationBrackets = []Bracket{{From: 8, To: 30}, {From: 1, To: 3}}
				r.Pricing = nil
				return r
			}(),
		},
		{
			name: "zero price is allowed",
			rule: func() PricingRule {
				r := validRule()
				r.Pricing[0].Prices[0].Price = decimal.Zero
				return r
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateRule(tt.rule); err != nil {
				t.Fatalf("ValidateRule() = %v, want nil", err)
			}
		})
	}
}

func TestValidateRule_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PricingRule)
		wantErr error
	}{
		{name: "empty id", mutate: func(r *PricingRule) { r.ID = " " }, wantErr: ErrInvalidRule},
		{name: "id with spaces", mutate: func(r *PricingRule) { r.ID = "summer promo" }, wantErr: ErrInvalidRule},
		{name: "id too long", mutate: func(r *PricingRule) { r.ID = strings.Repeat("x", MaxRuleIDLength+1) }, wantErr: ErrInvalidRule},
		{name: "empty name", mutate: func(r *PricingRule) { r.Name = "" }, wantErr: ErrInvalidRule},
		{name: "name too long", mutate: func(r *PricingRule) { r.Name = strings.Repeat("é", MaxRuleNameLength+1) }, wantErr: ErrInvalidRule},
		{name: "zero priority", mutate: func(r *PricingRule) { r.Priority = 0 }, wantErr: ErrInvalidRule},
		{name: "unknown status", mutate: func(r *PricingRule) { r.Status = "Paused" }, wantErr: ErrInvalidStatus},
		{
			name:    "range ends before start",
			mutate:  func(r *PricingRule) { r.Conditions.RentalDateRange.End = MustParseDate("2025-06-01") },
			wantErr: ErrInvalidDateRange,
		},
		{
			name:    "booking range missing end",
			mutate:  func(r *PricingRule) { r.Conditions.BookingDateRange = &DateRange{Start: MustParseDate("2025-01-01")} },
			wantErr: ErrInvalidDateRange,
		},
		{name: "weekday out of range", mutate: func(r *PricingRule) { r.Conditions.RentalDaysOfWeek = []time.Weekday{7} }, wantErr: ErrInvalidWeekday},
		{name: "unknown origin condition", mutate: func(r *PricingRule) { r.Conditions.CustomerOrigin.Condition = "Only" }, wantErr: ErrInvalidOrigin},
		{
			name:    "bracket from zero",
			mutate:  func(r *PricingRule) { r.Conditions.RentalDurationBrackets[0] = Bracket{From: 0, To: 1} },
			wantErr: ErrInvalidBracket,
		},
		{
			name:    "bracket reversed",
			mutate:  func(r *PricingRule) { r.Conditions.RentalDurationBrackets[1] = Bracket{From: 5, To: 2} },
			wantErr: ErrInvalidBracket,
		},
		{
			name:    "overlapping brackets out of order",
			mutate:  func(r *PricingRule) { r.Conditions.RentalDurationBrackets = []Bracket{{From: 6, To: 15}, {From: 1, To: 6}} },
			wantErr: ErrOverlappingBrackets,
		},
		{name: "empty sipp", mutate: func(r *PricingRule) { r.Pricing[0].SIPPCode = "" }, wantErr: ErrInvalidPrice},
		{
			name:    "negative price",
			mutate:  func(r *PricingRule) { r.Pricing[0].Prices[1].Price = decimal.NewFromInt(-5) },
			wantErr: ErrInvalidPrice,
		},
		{
			name: "duplicate cell across rows of same model",
			mutate: func(r *PricingRule) {
				r.Pricing = append(r.Pricing, CarModelPrice{SIPPCode: "CDAR", Prices: []DurationPrice{{From: 2, To: 5, Price: decimal.NewFromInt(1)}}})
			},
			wantErr: ErrDuplicatePrice,
		},
		{
			name: "duplicate cell across case variants of same model",
			mutate: func(r *PricingRule) {
				r.Pricing = append(r.Pricing, CarModelPrice{SIPPCode: " cdar", Prices: []DurationPrice{{From: 1, To: 1, Price: decimal.NewFromInt(50)}}})
			},
			wantErr: ErrDuplicatePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			err := ValidateRule(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateRule() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRuleSet(t *testing.T) {
	mk := func(id string, priority int) PricingRule {
		r := validRule()
		r.ID = id
		r.Priority = priority
		return r
	}

	tests := []struct {
		name     string
		rules    []PricingRule
		wantErrs []error
	}{
		{name: "empty set", rules: nil},
		{name: "dense set in any order", rules: []PricingRule{mk("b", 2), mk("a", 1), mk("c", 3)}},
		{name: "duplicate priority", rules: []PricingRule{mk("a", 1), mk("b", 1)}, wantErrs: []error{ErrDuplicatePriority, ErrPriorityGap}},
		{name: "gap", rules: []PricingRule{mk("a", 1), mk("b", 3)}, wantErrs: []error{ErrPriorityGap}},
		{name: "duplicate id", rules: []PricingRule{mk("a", 1), mk("a", 2)}, wantErrs: []error{ErrDuplicateRuleID}},
		{
			name: "rule level error is reported with set level errors",
			rules: func() []PricingRule {
				bad := mk("b", 4)
				bad.Status = "Unknown"
				return []PricingRule{mk("a", 1), bad}
			}(),
			wantErrs: []error{ErrInvalidStatus, ErrPriorityGap},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleSet(tt.rules)
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("ValidateRuleSet() = %v, want nil", err)
				}
				return
			}
			for _, want := range tt.wantErrs {
				if !errors.Is(err, want) {
					t.Errorf("ValidateRuleSet() = %v, want it to wrap %v", err, want)
				}
			}
		})
	}
}

func TestValidateReferences(t *testing.T) {
	cat := Catalog{
		Stores:    []Store{{ID: "store_1"}, {ID: "store_2"}},
		Channels:  []Channel{{ID: "channel_2"}},
		CarModels: []CarModel{{SIPPCode: "CDAR"}},
	}

	if err := ValidateReferences([]PricingRule{validRule()}, cat); err != nil {
		t.Fatalf("ValidateReferences() = %v, want nil", err)
	}

	r := validRule()
	r.Conditions.ApplicableStores = append(r.Conditions.ApplicableStores, "store_9")
	r.Pricing = append(r.Pricing, CarModelPrice{SIPPCode: "XXXX"})
	if err := ValidateReferences([]PricingRule{r}, cat); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("ValidateReferences() = %v, want ErrUnknownReference", err)
	}

	lower := validRule()
	lower.Pricing[0].SIPPCode = "cdar"
	if err := ValidateReferences([]PricingRule{lower}, cat); err != nil {
		t.Fatalf("sipp references should ignore case, got %v", err)
	}

	if err := ValidateReferences([]PricingRule{r}, Catalog{}); err != nil {
		t.Fatalf("empty catalog should skip checks, got %v", err)
	}
}
