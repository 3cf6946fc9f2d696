package snapshot

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TimurManjosov/gopricer/internal/rules"
	"github.com/TimurManjosov/gopricer/internal/ruleset"
)

func testDoc(price string) *ruleset.Document {
	return &ruleset.Document{
		Catalog: rules.Catalog{CarModels: []rules.CarModel{{SIPPCode: "CDAR", Name: "Compact"}}},
		Rules: []rules.PricingRule{
			{
				ID: "base", Name: "Base", Priority: 1, Status: rules.StatusEnabled,
				Conditions: rules.Condition{RentalDurationBrackets: []rules.Bracket{{From: 1, To: 7}}},
				Pricing: []rules.CarModelPrice{{
					SIPPCode: "CDAR",
					Prices:   []rules.DurationPrice{{From: 1, To: 7, Price: decimal.RequireFromString(price)}},
				}},
			},
			{
				ID: "winter", Name: "Winter", Priority: 2, Status: rules.StatusDisabled,
				Conditions: rules.Condition{RentalDateRange: &rules.DateRange{
					Start: rules.MustParseDate("2025-12-01"),
					End:   rules.MustParseDate("2026-02-28"),
				}},
			},
		},
	}
}

func TestBuild_Empty(t *testing.T) {
	snap := Build(&ruleset.Document{}, "")
	if snap == nil {
		t.Fatal("Build returned nil")
	}
	if len(snap.Rules) != 0 {
		t.Errorf("expected 0 rules, got %d", len(snap.Rules))
	}
	if snap.ETag == "" {
		t.Error("expected non-empty ETag")
	}
}

func TestBuild_CopiesRules(t *testing.T) {
	doc := testDoc("100")
	snap := Build(doc, "rules.yaml")

	doc.Rules[0].Pricing[0].Prices[0].Price = decimal.RequireFromString("1")
	doc.Rules[0].Name = "changed"

	if got := snap.Rules[0].Pricing[0].Prices[0].Price; !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("snapshot price changed to %s", got)
	}
	if snap.Rules[0].Name != "Base" {
		t.Errorf("snapshot name changed to %q", snap.Rules[0].Name)
	}
	if snap.Source != "rules.yaml" {
		t.Errorf("Source = %q", snap.Source)
	}
}

func TestBuild_ETag(t *testing.T) {
	a := Build(testDoc("100"), "a.yaml")
	b := Build(testDoc("100"), "b.yaml")
	c := Build(testDoc("101"), "a.yaml")

	if a.ETag != b.ETag {
		t.Errorf("expected deterministic ETags, got %s and %s", a.ETag, b.ETag)
	}
	if a.ETag == c.ETag {
		t.Error("expected different ETags for different prices")
	}
	if !strings.HasPrefix(a.ETag, `W/"`) || !strings.HasSuffix(a.ETag, `"`) {
		t.Errorf("expected weak ETag, got %s", a.ETag)
	}
}

func TestLoadAndUpdate(t *testing.T) {
	if Load() == nil {
		t.Fatal("Load returned nil")
	}

	snap := Build(testDoc("100"), "rules.yaml")
	Update(snap)

	loaded := Load()
	if len(loaded.Rules) != 2 {
		t.Errorf("expected 2 rules after update, got %d", len(loaded.Rules))
	}
	if loaded.ETag != snap.ETag {
		t.Errorf("expected ETag %s, got %s", snap.ETag, loaded.ETag)
	}
}

func TestUpdateNotifiesSubscribers(t *testing.T) {
	updates, unsub := Subscribe()
	defer unsub()

	snap := Build(testDoc("250"), "rules.yaml")
	go func() {
		time.Sleep(10 * time.Millisecond)
		Update(snap)
	}()

	select {
	case etag := <-updates:
		if etag != snap.ETag {
			t.Errorf("expected ETag %s, got %s", snap.ETag, etag)
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for update")
	}
}

func TestLifecycleCounts(t *testing.T) {
	snap := Build(testDoc("100"), "")

	counts := snap.LifecycleCounts(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	if got := counts[rules.StatusEnabled][rules.LifecycleActive]; got != 1 {
		t.Errorf("enabled active = %d, want 1", got)
	}
	if got := counts[rules.StatusDisabled][rules.LifecycleUpcoming]; got != 1 {
		t.Errorf("disabled upcoming = %d, want 1", got)
	}

	counts = snap.LifecycleCounts(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	if got := counts[rules.StatusDisabled][rules.LifecycleExpired]; got != 1 {
		t.Errorf("disabled expired = %d, want 1", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if Load() == nil {
				t.Error("Load returned nil")
			}
		}()
		go func(n int) {
			defer wg.Done()
			Update(Build(testDoc(decimal.NewFromInt(int64(n)).String()), ""))
		}(i)
	}
	wg.Wait()

	if Load() == nil {
		t.Error("final Load returned nil")
	}
}
