package rules

import (
	"testing"
	"time"
)

func TestClassifyLifecycle(t *testing.T) {
	summer := &DateRange{Start: MustParseDate("2025-07-01"), End: MustParseDate("2025-08-31")}

	tests := []struct {
		name string
		rng  *DateRange
		now  time.Time
		want Lifecycle
	}{
		{name: "no range is always active", rng: nil, now: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), want: LifecycleActive},
		{name: "before start", rng: summer, now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), want: LifecycleUpcoming},
		{name: "inside window", rng: summer, now: time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC), want: LifecycleActive},
		{name: "after end", rng: summer, now: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), want: LifecycleExpired},
		{name: "first day is active", rng: summer, now: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), want: LifecycleActive},
		{name: "last day is active until midnight", rng: summer, now: time.Date(2025, 8, 31, 23, 59, 59, 0, time.UTC), want: LifecycleActive},
		{name: "day before start", rng: summer, now: time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC), want: LifecycleUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyLifecycle(tt.rng, tt.now, time.UTC); got != tt.want {
				t.Fatalf("ClassifyLifecycle() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyLifecycle_UsesLocationDayBoundary(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	rng := &DateRange{Start: MustParseDate("2025-07-01"), End: MustParseDate("2025-08-31")}

	// 2025-06-30 16:00 UTC is already 2025-07-01 in Tokyo.
	now := time.Date(2025, 6, 30, 16, 0, 0, 0, time.UTC)

	if got := ClassifyLifecycle(rng, now, time.UTC); got != LifecycleUpcoming {
		t.Errorf("UTC: got %s, want Upcoming", got)
	}
	if got := ClassifyLifecycle(rng, now, tokyo); got != LifecycleActive {
		t.Errorf("Tokyo: got %s, want Active", got)
	}
}

func TestRefreshLifecycles_DoesNotMutateInput(t *testing.T) {
	in := []PricingRule{
		{ID: "r1", Lifecycle: LifecycleUpcoming, Conditions: Condition{RentalDateRange: &DateRange{Start: MustParseDate("2025-07-01"), End: MustParseDate("2025-08-31")}}},
		{ID: "r2", Lifecycle: LifecycleExpired},
	}
	now := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	out := RefreshLifecycles(in, now, time.UTC)

	if out[0].Lifecycle != LifecycleActive || out[1].Lifecycle != LifecycleActive {
		t.Fatalf("refreshed lifecycles = %s, %s; want Active, Active", out[0].Lifecycle, out[1].Lifecycle)
	}
	if in[0].Lifecycle != LifecycleUpcoming || in[1].Lifecycle != LifecycleExpired {
		t.Fatal("RefreshLifecycles mutated its input")
	}
}
