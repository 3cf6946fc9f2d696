// Package telemetry exposes pricer metrics for Prometheus.
package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TimurManjosov/gopricer/internal/rules"
	"github.com/TimurManjosov/gopricer/internal/snapshot"
)

// Registry holds every pricer collector.
var Registry = prometheus.NewRegistry()

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricer_http_requests_total",
			Help: "Total HTTP requests served by the monitor",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricer_http_request_duration_seconds",
			Help:    "Monitor HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	Reloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricer_rule_reloads_total",
			Help: "Rule file reload attempts, by result",
		},
		[]string{"result"},
	)
	SnapshotRules = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pricer_snapshot_rules",
		Help: "Number of rules in the published snapshot",
	})
	RulesByLifecycle = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pricer_rules",
			Help: "Rules in the published snapshot, by status and current lifecycle",
		},
		[]string{"status", "lifecycle"},
	)
)

var initOnce sync.Once

// Init registers the collectors with Registry. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		Registry.MustRegister(httpReqs, httpDur, Reloads, SnapshotRules, RulesByLifecycle)
	})
}

// RecordReload counts a reload attempt; err nil means the new rules were published.
func RecordReload(err error) {
	if err != nil {
		Reloads.WithLabelValues("error").Inc()
		return
	}
	Reloads.WithLabelValues("ok").Inc()
}

// ObserveSnapshot refreshes the rule gauges. Lifecycles move with the
// calendar, so it must be called periodically and not only on reload.
func ObserveSnapshot(s *snapshot.Snapshot, now time.Time, loc *time.Location) {
	SnapshotRules.Set(float64(len(s.Rules)))
	counts := s.LifecycleCounts(now, loc)
	for _, status := range []rules.Status{rules.StatusEnabled, rules.StatusDisabled} {
		for _, lc := range []rules.Lifecycle{rules.LifecycleActive, rules.LifecycleUpcoming, rules.LifecycleExpired} {
			RulesByLifecycle.WithLabelValues(string(status), string(lc)).Set(float64(counts[status][lc]))
		}
	}
}

// NewRouter serves /metrics from Registry and /healthz with the ETag of the
// published snapshot.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s := snapshot.Load()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", s.ETag)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"etag":      s.ETag,
			"rules":     len(s.Rules),
			"updatedAt": s.UpdatedAt,
		})
	})
	return r
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		// the pattern is only known once chi has routed the request
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
