// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/scoresnap/internal/model"
)

const namespace = "scoresnap"

// Name resolution outcomes
const (
	ResolutionAutoResolved = "auto_resolved"
	ResolutionNeedsInput   = "needs_input"
	ResolutionNoMatch      = "no_match"
)

// Session match outcomes
const (
	SessionMatchedOverlap  = "roster_overlap"
	SessionMatchedFallback = "fallback"
	SessionCreated         = "created"
)

// Metrics holds every collector. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	NameResolutions     *prometheus.CounterVec
	SessionMatches      *prometheus.CounterVec
	UploadsPersisted    *prometheus.CounterVec
	GamesSkipped        prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates collectors registered on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		NameResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "name_resolutions_total",
			Help:      "Parsed bowler names resolved, by outcome.",
		}, []string{"outcome"}),
		SessionMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_matches_total",
			Help:      "Uploads merged into an existing session or given a new one, by outcome.",
		}, []string{"outcome"}),
		UploadsPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_persisted_total",
			Help:      "Scoreboard persistence attempts, by status.",
		}, []string{"status"}),
		GamesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_skipped_total",
			Help:      "Parsed games skipped because the game number was already recorded.",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		m.NameResolutions,
		m.SessionMatches,
		m.UploadsPersisted,
		m.GamesSkipped,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveResolution counts one name resolution
func (m *Metrics) ObserveResolution(res *model.NameResolution) {
	if m == nil || res == nil {
		return
	}
	outcome := ResolutionNoMatch
	switch {
	case res.ResolvedBowlerID != nil:
		outcome = ResolutionAutoResolved
	case res.NeedsUserInput:
		outcome = ResolutionNeedsInput
	}
	m.NameResolutions.WithLabelValues(outcome).Inc()
}

// ObserveSessionMatch counts a session match, or a new session when match is nil
func (m *Metrics) ObserveSessionMatch(match *model.SessionMatch) {
	if m == nil {
		return
	}
	outcome := SessionCreated
	if match != nil {
		outcome = string(match.Reason)
	}
	m.SessionMatches.WithLabelValues(outcome).Inc()
}

// ObservePersist counts a persistence attempt and its skipped games
func (m *Metrics) ObservePersist(result *model.PersistResult) {
	if m == nil || result == nil {
		return
	}
	status := "success"
	if !result.Success {
		status = "failure"
	}
	m.UploadsPersisted.WithLabelValues(status).Inc()
	m.GamesSkipped.Add(float64(result.SkippedGames))
}
