package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalrelay/internal/core"
)

func TestCounters(t *testing.T) {
	m := New()
	m.LineParsed()
	m.LineParsed()
	m.LineInvalid()
	m.OrderPlaced(10 * time.Millisecond)
	m.OrderFailed(core.ErrVolumeOutOfRange, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lines.WithLabelValues("parsed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lines.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("placed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("failed", "VOLUME_OUT_OF_RANGE")))
}

func TestHandlerExposesRelayMetrics(t *testing.T) {
	m := New()
	m.LineInvalid()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `signalrelay_lines_total{result="invalid"} 1`)
	assert.Contains(t, string(body), "signalrelay_order_seconds")
}
