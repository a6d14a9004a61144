package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveGeneration("ok", 120*time.Millisecond)
	m.ObserveGeneration("ok", 80*time.Millisecond)
	m.ObserveGeneration("error", time.Second)
	m.ObserveRouted("Email", "RFQ", "email_handler")
	m.ObserveResult("email_handler", false)
	m.ObserveResult("json_handler", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GeneratorCalls.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeneratorCalls.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsRouted.WithLabelValues("Email", "RFQ", "email_handler")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlerResults.WithLabelValues("json_handler", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.GeneratorDuration))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveGeneration("ok", time.Second) })
}

func TestInitTracer(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer("docrouter-test", &buf, nil)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "unit")
	span.End()
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "unit"`)
}
