package monitor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/gopricer/internal/rules"
	"github.com/TimurManjosov/gopricer/internal/ruleset"
	"github.com/TimurManjosov/gopricer/internal/snapshot"
)

func docWithRule(name string) *ruleset.Document {
	return &ruleset.Document{Rules: []rules.PricingRule{{
		ID: "july", Name: name, Priority: 1, Status: rules.StatusEnabled,
		Conditions: rules.Condition{RentalDateRange: &rules.DateRange{
			Start: rules.MustParseDate("2025-07-01"),
			End:   rules.MustParseDate("2025-07-31"),
		}},
	}}}
}

func newTestMonitor(t *testing.T, now *time.Time) (*Monitor, string, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := ruleset.Save(path, docWithRule("July")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	var logs bytes.Buffer
	m := New(Options{
		RulesFile: path,
		Interval:  time.Hour,
		Logger:    zerolog.New(&logs),
		Now:       func() time.Time { return *now },
	})
	return m, path, &logs
}

func TestReload(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	m, path, logs := newTestMonitor(t, &now)

	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	published := snapshot.Load()
	if published.Source != path || len(published.Rules) != 1 {
		t.Fatalf("unexpected snapshot %+v", published)
	}

	if err := os.WriteFile(path, []byte("rules:\n  - {id: x, priority: 3}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err == nil {
		t.Fatal("expected invalid file to be rejected")
	}
	if snapshot.Load().ETag != published.ETag {
		t.Fatal("invalid file must not replace the published snapshot")
	}
	if !strings.Contains(logs.String(), "keeping previous rules") {
		t.Errorf("rejection not logged:\n%s", logs)
	}
}

func TestTick_LogsLifecycleTransitions(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	m, _, logs := newTestMonitor(t, &now)
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	m.Tick()
	if !strings.Contains(logs.String(), `"to":"Upcoming"`) {
		t.Fatalf("initial lifecycle not logged:\n%s", logs)
	}

	logs.Reset()
	m.Tick()
	if logs.Len() != 0 {
		t.Fatalf("no transition expected, got:\n%s", logs)
	}

	now = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	m.Tick()
	if !strings.Contains(logs.String(), `"from":"Upcoming","to":"Active"`) {
		t.Fatalf("activation not logged:\n%s", logs)
	}

	logs.Reset()
	now = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	m.Tick()
	if !strings.Contains(logs.String(), `"level":"warn"`) || !strings.Contains(logs.String(), `"to":"Expired"`) {
		t.Fatalf("expiry of enabled rule should warn:\n%s", logs)
	}
}

func TestRun_ReloadsOnFileChange(t *testing.T) {
	now := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	m, path, _ := newTestMonitor(t, &now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	deadline := time.After(5 * time.Second)
	for snapshot.Load().Source != path {
		select {
		case <-deadline:
			t.Fatal("initial load not published")
		case <-time.After(10 * time.Millisecond):
		}
	}

	updates, unsub := snapshot.Subscribe()
	defer unsub()
	if err := ruleset.Save(path, docWithRule("July extended")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	for {
		select {
		case <-updates:
			if snapshot.Load().Rules[0].Name == "July extended" {
				return
			}
		case <-deadline:
			t.Fatal("change was not reloaded")
		}
	}
}

// syncBuffer lets the test read logs written by the Run goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_TicksOnPublishedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := ruleset.Save(path, docWithRule("July")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	var logs syncBuffer
	m := New(Options{
		RulesFile: path,
		Interval:  time.Hour,
		Logger:    zerolog.New(&logs),
		Now:       func() time.Time { return time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	waitForLog := func(want string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for !strings.Contains(logs.String(), want) {
			select {
			case <-deadline:
				t.Fatalf("log %s not written:\n%s", want, logs.String())
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
	waitForLog(`"rule_id":"july"`)

	doc := docWithRule("August")
	doc.Rules[0].ID = "august"
	doc.Rules[0].Conditions.RentalDateRange = &rules.DateRange{
		Start: rules.MustParseDate("2025-08-01"),
		End:   rules.MustParseDate("2025-08-31"),
	}
	snapshot.Update(snapshot.Build(doc, "published elsewhere"))
	waitForLog(`"rule_id":"august"`)
}
