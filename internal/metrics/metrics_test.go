package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIngest(IngestAccepted)
		m.RecordWrite("http", nil)
		m.RecordQuery("range", 3, nil)
		m.RecordHTTP(http.MethodGet, "/sensor", http.StatusOK, time.Millisecond)
		m.SetMQTTConnected(true)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCounters(t *testing.T) {
	m := New()

	m.RecordIngest(IngestAccepted)
	m.RecordIngest(IngestFiltered)
	m.RecordIngest(IngestFiltered)
	m.RecordWrite("mqtt", nil)
	m.RecordWrite("http", errors.New("boom"))
	m.RecordQuery("range", 4, nil)
	m.RecordQuery("csv", 0, errors.New("boom"))
	m.SetMQTTConnected(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues(IngestAccepted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues(IngestFiltered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writesTotal.WithLabelValues("mqtt", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writesTotal.WithLabelValues("http", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("range", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("csv", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mqttConnected))

	m.SetMQTTConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.mqttConnected))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordHTTP(http.MethodPost, "/sensor", http.StatusBadRequest, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `soilmon_http_requests_total{code="400",method="POST",route="/sensor"} 1`)
	assert.Contains(t, body, "soilmon_http_request_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}
