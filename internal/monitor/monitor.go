// Package monitor keeps the published rule snapshot in sync with the rule
// file and refreshes the rule gauges as lifecycles change with the calendar.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/gopricer/internal/rules"
	"github.com/TimurManjosov/gopricer/internal/ruleset"
	"github.com/TimurManjosov/gopricer/internal/snapshot"
	"github.com/TimurManjosov/gopricer/internal/telemetry"
)

type Options struct {
	RulesFile string
	Interval  time.Duration
	Location  *time.Location
	Logger    zerolog.Logger
	Now       func() time.Time // defaults to time.Now
}

type Monitor struct {
	opts Options

	mu         sync.Mutex
	lifecycles map[string]rules.Lifecycle // last observed, by rule id
}

func New(opts Options) *Monitor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Monitor{opts: opts, lifecycles: map[string]rules.Lifecycle{}}
}

// Reload reads the rule file and publishes it. An invalid file leaves the
// previously published snapshot in place. Gauges follow on the next Tick.
func (m *Monitor) Reload() error {
	log := m.opts.Logger
	doc, err := ruleset.Load(m.opts.RulesFile)
	telemetry.RecordReload(err)
	if err != nil {
		log.Warn().Err(err).Str("file", m.opts.RulesFile).Msg("rule file rejected, keeping previous rules")
		return err
	}

	next := snapshot.Build(doc, m.opts.RulesFile)
	if prev := snapshot.Load(); prev.ETag == next.ETag && prev.Source == next.Source {
		log.Debug().Str("etag", next.ETag).Msg("rule file unchanged")
		return nil
	}
	snapshot.Update(next)
	log.Info().Str("etag", next.ETag).Int("rules", len(next.Rules)).Msg("rules published")
	return nil
}

// Tick refreshes the gauges and logs every rule whose lifecycle moved since
// the last tick. Enabled rules that have expired are reported at warn since
// they can no longer price anything.
func (m *Monitor) Tick() {
	s := snapshot.Load()
	now := m.opts.Now()
	telemetry.ObserveSnapshot(s, now, m.opts.Location)

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]rules.Lifecycle, len(s.Rules))
	for _, r := range s.Rules {
		lc := rules.LifecycleOf(r, now, m.opts.Location)
		seen[r.ID] = lc
		prev, known := m.lifecycles[r.ID]
		if known && prev == lc {
			continue
		}
		ev := m.opts.Logger.Info()
		if lc == rules.LifecycleExpired && r.Enabled() {
			ev = m.opts.Logger.Warn()
		}
		ev.Str("rule_id", r.ID).Int("priority", r.Priority).
			Str("from", string(prev)).Str("to", string(lc)).
			Msg("rule lifecycle changed")
	}
	m.lifecycles = seen
}

// Run reloads on rule file changes until ctx is cancelled. It ticks every
// Interval and whenever a snapshot is published, whoever published it.
// The file is loaded once before watching starts; a bad file at startup
// is an error.
func (m *Monitor) Run(ctx context.Context) error {
	updates, unsubscribe := snapshot.Subscribe()
	defer unsubscribe()

	if err := m.Reload(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and Save replace the file via rename.
	target := filepath.Clean(m.opts.RulesFile)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			_ = m.Reload() // logged; previous rules stay published
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.opts.Logger.Warn().Err(err).Msg("file watcher error")
		case etag, ok := <-updates:
			if !ok {
				return nil
			}
			m.opts.Logger.Debug().Str("etag", etag).Msg("snapshot published")
			m.Tick()
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Serve exposes /metrics and /healthz on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           telemetry.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
