// Package metrics instruments queries, cache use and calculations with
// Prometheus. Each Metrics owns its registry so tests can build fresh ones.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	calculations  *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobflow_db_query_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		queryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobflow_db_query_errors_total",
			Help: "Total number of failed database operations",
		}, []string{"operation"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "jobflow_cache_hits_total",
			Help: "Total number of cache hits",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "jobflow_cache_misses_total",
			Help: "Total number of cache misses",
		}),
		calculations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobflow_calculations_total",
			Help: "Total number of time balance calculations",
		}, []string{"kind"}),
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobflow_shortage_alerts_total",
			Help: "Total number of shortage alerts raised",
		}, []string{"severity"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobflow_notifications_sent_total",
			Help: "Total number of notifications dispatched",
		}, []string{"channel"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveQuery records one database operation started at start.
func (m *Metrics) ObserveQuery(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.queryErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) Calculation(kind string) {
	if m != nil {
		m.calculations.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ShortageAlert(severity string) {
	if m != nil {
		m.alerts.WithLabelValues(severity).Inc()
	}
}

func (m *Metrics) NotificationSent(channel string) {
	if m != nil {
		m.notifications.WithLabelValues(channel).Inc()
	}
}
