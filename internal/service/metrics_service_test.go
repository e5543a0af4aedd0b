package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()
	m.ComplaintCreated()
	m.ComplaintCreated()
	m.ComplaintClosed()
	m.MessagePosted(true)
	m.MessagePosted(false)
	m.MessagePosted(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.complaintsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.complaintsClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesPosted.WithLabelValues("admin")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesPosted.WithLabelValues("user")))
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/complaints", http.StatusOK, 5*time.Millisecond)
	m.ObserveDBQuery("complaints.list", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "http_requests_total"))
	assert.True(t, strings.Contains(body, "db_query_duration_seconds"))
}

func TestNilMetricsServiceIsNoop(t *testing.T) {
	var m *MetricsService
	m.ComplaintCreated()
	m.MessagePosted(true)
	m.StreamOpened()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
