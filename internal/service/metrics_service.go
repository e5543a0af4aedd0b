package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. A nil *MetricsService is a valid no-op recorder.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	dbQueryDuration   *prometheus.HistogramVec
	complaintsCreated prometheus.Counter
	complaintsClosed  prometheus.Counter
	messagesPosted    *prometheus.CounterVec
	streamClients     prometheus.Gauge
	eventsDropped     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	complaintsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "complaints_created_total",
		Help: "Total complaints filed",
	})

	complaintsClosed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "complaints_closed_total",
		Help: "Total complaints moved from active to closed",
	})

	messagesPosted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_messages_posted_total",
		Help: "Total complaint thread messages by sender role",
	}, []string{"sender"})

	streamClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "complaint_stream_clients",
		Help: "Open websocket message streams",
	})

	eventsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "complaint_message_events_dropped_total",
		Help: "Message events that never reached live subscribers",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, complaintsCreated, complaintsClosed, messagesPosted, streamClients, eventsDropped, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		dbQueryDuration:   dbQueryDuration,
		complaintsCreated: complaintsCreated,
		complaintsClosed:  complaintsClosed,
		messagesPosted:    messagesPosted,
		streamClients:     streamClients,
		eventsDropped:     eventsDropped,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ComplaintCreated counts a filed complaint.
func (m *MetricsService) ComplaintCreated() {
	if m == nil {
		return
	}
	m.complaintsCreated.Inc()
}

// ComplaintClosed counts an active to closed transition.
func (m *MetricsService) ComplaintClosed() {
	if m == nil {
		return
	}
	m.complaintsClosed.Inc()
}

// MessagePosted counts a thread message by the sender's role at write time.
func (m *MetricsService) MessagePosted(admin bool) {
	if m == nil {
		return
	}
	sender := "user"
	if admin {
		sender = "admin"
	}
	m.messagesPosted.WithLabelValues(sender).Inc()
}

// StreamOpened tracks a websocket subscriber joining.
func (m *MetricsService) StreamOpened() {
	if m == nil {
		return
	}
	m.streamClients.Inc()
}

// StreamClosed tracks a websocket subscriber leaving.
func (m *MetricsService) StreamClosed() {
	if m == nil {
		return
	}
	m.streamClients.Dec()
}

// MessageEventDropped counts a message event abandoned before publication.
func (m *MetricsService) MessageEventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}
