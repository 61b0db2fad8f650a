package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus collectors for the tripboard client.
type Metrics struct {
	registry *prometheus.Registry

	// Companion server.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Calls to the trip API.
	RemoteCallsTotal   *prometheus.CounterVec
	RemoteCallDuration *prometheus.HistogramVec

	// Gestures (join, vote, recruit...).
	GesturesTotal          *prometheus.CounterVec
	GestureRejectionsTotal *prometheus.CounterVec

	// Notifications.
	RemindersTotal *prometheus.CounterVec
	UnreadCount    prometheus.Gauge
	TripsLoaded    prometheus.Gauge

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripboard_http_requests_total",
			Help: "Total number of companion server requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripboard_http_request_duration_seconds",
			Help:    "Companion server request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		RemoteCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripboard_remote_calls_total",
			Help: "Total number of trip API calls.",
		}, []string{"op", "status_code"}),

		RemoteCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripboard_remote_call_duration_seconds",
			Help:    "Trip API call duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),

		GesturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripboard_gestures_total",
			Help: "Total number of completed user gestures.",
		}, []string{"action"}),

		GestureRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripboard_gesture_rejections_total",
			Help: "Total number of rejected user gestures by reason.",
		}, []string{"action", "reason"}),

		RemindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripboard_reminders_total",
			Help: "Total number of trip reminders fired.",
		}, []string{"timing"}),

		UnreadCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tripboard_unread_count",
			Help: "Current unread notification count.",
		}),

		TripsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tripboard_trips_loaded",
			Help: "Number of trips in the local list.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tripboard_server_start_time_seconds",
			Help: "Unix timestamp when the process started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RemoteCallsTotal,
		m.RemoteCallDuration,
		m.GesturesTotal,
		m.GestureRejectionsTotal,
		m.RemindersTotal,
		m.UnreadCount,
		m.TripsLoaded,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector exposes pool stats of the Postgres state backend.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveHTTP records one companion server request.
func (m *Metrics) ObserveHTTP(method, pattern string, statusCode int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, pattern, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pattern).Observe(seconds)
}

// ObserveRemoteCall records one trip API call. statusCode is 0 when no
// response arrived.
func (m *Metrics) ObserveRemoteCall(op string, statusCode int, seconds float64) {
	m.RemoteCallsTotal.WithLabelValues(op, fmt.Sprintf("%d", statusCode)).Inc()
	m.RemoteCallDuration.WithLabelValues(op).Observe(seconds)
}

// IncGesture counts a completed gesture.
func (m *Metrics) IncGesture(action string) {
	m.GesturesTotal.WithLabelValues(action).Inc()
}

// IncGestureRejection counts a refused gesture.
func (m *Metrics) IncGestureRejection(action, reason string) {
	m.GestureRejectionsTotal.WithLabelValues(action, reason).Inc()
}

// IncReminder counts a fired reminder.
func (m *Metrics) IncReminder(timing string) {
	m.RemindersTotal.WithLabelValues(timing).Inc()
}

// SetUnread mirrors the persisted unread count.
func (m *Metrics) SetUnread(n int) {
	m.UnreadCount.Set(float64(n))
}

// SetTripsLoaded mirrors the size of the local trip list.
func (m *Metrics) SetTripsLoaded(n int) {
	m.TripsLoaded.Set(float64(n))
}
