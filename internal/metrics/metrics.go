package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	badgesUnlocked    *prometheus.CounterVec
	completions       *prometheus.CounterVec
	cheers            prometheus.Counter
	dashboardDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		badgesUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanso_badges_unlocked_total",
			Help: "Badges newly unlocked, by badge key.",
		}, []string{"badge"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanso_completions_toggled_total",
			Help: "Habit completion toggles, by direction.",
		}, []string{"direction"}),
		cheers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanso_cheers_total",
			Help: "Cheers given to shared habits.",
		}),
		dashboardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kanso_dashboard_duration_seconds",
			Help:    "Time spent assembling a dashboard.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.badgesUnlocked,
		m.completions,
		m.cheers,
		m.dashboardDuration,
	)
	return m
}

func (m *Metrics) BadgeUnlocked(key string) {
	if m == nil {
		return
	}
	m.badgesUnlocked.WithLabelValues(key).Inc()
}

func (m *Metrics) CompletionToggled(completed bool) {
	if m == nil {
		return
	}
	direction := "removed"
	if completed {
		direction = "added"
	}
	m.completions.WithLabelValues(direction).Inc()
}

func (m *Metrics) Cheered() {
	if m == nil {
		return
	}
	m.cheers.Inc()
}

func (m *Metrics) ObserveDashboard(d time.Duration) {
	if m == nil {
		return
	}
	m.dashboardDuration.Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
