package mlclient

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"go.uber.org/zap"
)

// scriptedProvider отдает ошибки из списка, затем успешный ответ
type scriptedProvider struct {
	errs  []error
	calls atomic.Int32
}

func (p *scriptedProvider) Predict(ctx context.Context, _ map[string]any) (*domain.Prediction, error) {
	n := int(p.calls.Add(1)) - 1
	if n < len(p.errs) {
		return nil, p.errs[n]
	}
	prob := 0.3
	return &domain.Prediction{Probability: &prob}, nil
}

func testConfig() infra.MLConfig {
	return infra.MLConfig{
		Timeout:            time.Second,
		RetryAttempts:      3,
		RateLimit:          1000,
		RateBurst:          100,
		CBMaxRequests:      1,
		CBInterval:         time.Minute,
		CBTimeout:          time.Minute,
		CBFailureThreshold: 1,
	}
}

// TestReliability_RetriesServerErrors verifies transient 5xx answers are retried.
func TestReliability_RetriesServerErrors(t *testing.T) {
	p := &scriptedProvider{errs: []error{&StatusError{Code: 503}}}
	metrics := infra.NewMetrics(prometheus.NewRegistry())
	w := NewReliabilityWrapper(p, testConfig(), metrics, zap.NewNop())

	pred, err := w.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, *pred.Probability, 1e-9)
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MLCalls.WithLabelValues("success")))
}

// TestReliability_RetriesThrottled: 429 повторяется после паузы из Retry-After
// и не считается падением сервиса.
func TestReliability_RetriesThrottled(t *testing.T) {
	throttled := &ThrottleError{RetryAfter: 10 * time.Millisecond, Cause: &StatusError{Code: 429}}
	p := &scriptedProvider{errs: []error{throttled}}
	metrics := infra.NewMetrics(prometheus.NewRegistry())
	w := NewReliabilityWrapper(p, testConfig(), metrics, zap.NewNop())

	start := time.Now()
	pred, err := w.Predict(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, pred)
	assert.Equal(t, int32(2), p.calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MLCalls.WithLabelValues("success")))
}

// TestReliability_NoRetryOnClientError: 4xx is returned immediately.
func TestReliability_NoRetryOnClientError(t *testing.T) {
	p := &scriptedProvider{errs: []error{&StatusError{Code: 400}, &StatusError{Code: 400}}}
	w := NewReliabilityWrapper(p, testConfig(), nil, zap.NewNop())

	_, err := w.Predict(context.Background(), nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int32(1), p.calls.Load())
}

// TestReliability_BreakerOpens checks that repeated failures stop calling the service.
func TestReliability_BreakerOpens(t *testing.T) {
	down := errors.New("connection refused")
	p := &scriptedProvider{errs: []error{down, down, down, down, down, down, down, down}}
	cfg := testConfig()
	cfg.RetryAttempts = 1
	metrics := infra.NewMetrics(prometheus.NewRegistry())
	w := NewReliabilityWrapper(p, cfg, metrics, zap.NewNop())

	// Порог 1: после второй подряд ошибки предохранитель открывается
	for i := 0; i < 2; i++ {
		_, err := w.Predict(context.Background(), nil)
		require.Error(t, err)
	}
	calls := p.calls.Load()

	_, err := w.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, calls, p.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("ml-predict")))
}

// TestReliability_RateLimited rejects without waiting when the bucket is empty.
func TestReliability_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	p := &scriptedProvider{}
	w := NewReliabilityWrapper(p, cfg, nil, zap.NewNop())

	_, err := w.Predict(context.Background(), nil)
	require.NoError(t, err)

	_, err = w.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestMockPredictor(t *testing.T) {
	pred, err := MockPredictor{}.Predict(context.Background(), map[string]any{"CA125_Level": 80.0, "HE4_Level": 200.0})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, *pred.Probability, 1e-9)
	assert.Equal(t, 1, *pred.Risk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = MockPredictor{}.Predict(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

