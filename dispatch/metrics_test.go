package dispatch

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mversen/keyfall/credential"
)

func TestNewMetricsCollectorWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	require.NotNil(t, collector)
	assert.NotNil(t, collector.dispatchesTotal)
	assert.NotNil(t, collector.attemptsTotal)
	assert.NotNil(t, collector.attemptDuration)
	assert.NotNil(t, collector.refreshesTotal)
}

func TestNilCollectorRecordsNothing(t *testing.T) {
	var collector *MetricsCollector

	assert.NotPanics(t, func() {
		collector.recordDispatch(outcomeSuccess)
		collector.recordAttempt(true, time.Millisecond)
		collector.recordRefresh(false)
	})
}

func TestMetricsCountDispatchOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	server := newTokenServer(map[string]func(http.ResponseWriter){
		"cred-A": respondJSON(http.StatusTooManyRequests, `{"error":{"message":"quota exceeded"}}`),
		"cred-B": respondJSON(http.StatusOK, `{"ok":true}`),
	})
	defer server.Close()

	d := New(sourceWith("cred-A", "cred-B"), WithMetrics(collector))

	_, err := d.Dispatch(context.Background(), server.URL, nil, "generate.story")
	require.NoError(t, err)

	assert.Equal(t, float64(1),
		testutil.ToFloat64(collector.dispatchesTotal.WithLabelValues(outcomeSuccess)))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(collector.attemptsTotal.WithLabelValues(outcomeFailure)))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(collector.attemptsTotal.WithLabelValues(outcomeSuccess)))
}

func TestMetricsCountExhaustionAndRefresh(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	server := newTokenServer(map[string]func(http.ResponseWriter){
		"cred-A": respondJSON(http.StatusInternalServerError, `{"message":"down"}`),
	})
	defer server.Close()

	source := &staticSource{resolution: credential.Resolution{
		Credentials: []credential.Credential{{Token: "cred-A"}},
		Refreshed:   true,
	}}
	d := New(source, WithMetrics(collector))

	_, err := d.Dispatch(context.Background(), server.URL, nil, "generate.story")
	require.Error(t, err)

	assert.Equal(t, float64(1),
		testutil.ToFloat64(collector.dispatchesTotal.WithLabelValues(outcomeExhausted)))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(collector.refreshesTotal.WithLabelValues(outcomeSuccess)))
}
