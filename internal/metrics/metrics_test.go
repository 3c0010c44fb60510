package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New("previo")
	m.RecordUpload("previo", true)
	m.RecordUpload("previo", false)
	m.RecordRejection("invalid_type")
	m.RecordHTTPRequest(http.MethodGet, "/healthz", 200, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("previo", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("previo", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadRejections.WithLabelValues("invalid_type")))

	n, err := testutil.GatherAndCount(m.Registry(), "previo_image_uploads_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "previo_http_requests_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordUpload("previo", true)
		m.RecordRejection("too_large")
		m.RecordReport("pdf")
		m.RecordNotice("products")
		m.RecordCompleted()
		m.RecordHTTPRequest("GET", "/", 200, time.Second)
	})
}
