package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application's Prometheus instruments. All observe
// methods accept a nil receiver, so callers under test can skip wiring.
type Metrics struct {
	searchRequests   *prometheus.CounterVec
	streamEvents     *prometheus.CounterVec
	toastUpdates     *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	scheduleRuns     prometheus.Counter
	scheduleDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		searchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplanner_search_requests_total",
			Help: "Place searches by outcome (ok, empty, error)",
		}, []string{"outcome"}),
		streamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplanner_schedule_stream_events_total",
			Help: "Decoded scheduler stream events by status",
		}, []string{"status"}),
		toastUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplanner_toast_updates_total",
			Help: "Toast store operations by kind (push, update, remove)",
		}, []string{"kind"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplanner_provider_requests_total",
			Help: "Outbound Vietmap API calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		scheduleRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripplanner_schedule_runs_total",
			Help: "Scheduling runs started",
		}),
		scheduleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripplanner_schedule_run_duration_seconds",
			Help:    "Wall time of a scheduling run, start to finalizer",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(
		m.searchRequests,
		m.streamEvents,
		m.toastUpdates,
		m.providerRequests,
		m.scheduleRuns,
		m.scheduleDuration,
	)
}

func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStreamEvent(status string) {
	if m == nil {
		return
	}
	m.streamEvents.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveToast(kind string) {
	if m == nil {
		return
	}
	m.toastUpdates.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveProviderRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) ScheduleRunStarted() {
	if m == nil {
		return
	}
	m.scheduleRuns.Inc()
}

func (m *Metrics) ScheduleRunFinished(seconds float64) {
	if m == nil {
		return
	}
	m.scheduleDuration.Observe(seconds)
}
