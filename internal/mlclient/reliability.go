package mlclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable — предохранитель открыт или лимит исчерпан, модель не вызывалась
var ErrUnavailable = errors.New("ML service temporarily unavailable")

// PredictionProvider — нижележащий транспорт (Client или Mock)
type PredictionProvider interface {
	Predict(ctx context.Context, features map[string]any) (*domain.Prediction, error)
}

// ReliabilityWrapper: Rate Limiter -> Circuit Breaker -> Retries (с таймаутом на попытку)
type ReliabilityWrapper struct {
	next       PredictionProvider
	cb         *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	attempts   uint
	perAttempt time.Duration
	metrics    *infra.Metrics
}

func NewReliabilityWrapper(next PredictionProvider, cfg infra.MLConfig, metrics *infra.Metrics, logger *zap.Logger) *ReliabilityWrapper {
	log := logger.Named("ml-breaker")

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ml-predict",
		MaxRequests: uint32(cfg.CBMaxRequests),
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > uint32(cfg.CBFailureThreshold)
		},
		// 4xx — ошибка запроса, а не падение сервиса
		IsSuccessful: func(err error) bool {
			return err == nil || !retryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if metrics != nil {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			}
		},
	})

	attempts := uint(cfg.RetryAttempts)
	if attempts == 0 {
		attempts = 1
	}

	return &ReliabilityWrapper{
		next:       next,
		cb:         cb,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		attempts:   attempts,
		perAttempt: cfg.Timeout,
		metrics:    metrics,
	}
}

// Predict реализует risk.Predictor
func (w *ReliabilityWrapper) Predict(ctx context.Context, features map[string]any) (*domain.Prediction, error) {
	// 1. Rate Limiter: не ждем слота, дашборд не должен висеть из-за модели
	if !w.limiter.Allow() {
		w.observe("rate_limited")
		return nil, fmt.Errorf("%w: rate limit exceeded", ErrUnavailable)
	}

	var pred *domain.Prediction

	// 2. Circuit Breaker
	_, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.attempts),
			retry.LastErrorOnly(true),
			retry.RetryIf(retryable),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Сервис сам сказал, сколько ждать
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		return nil, r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, w.perAttempt)
			defer cancel()

			var callErr error
			pred, callErr = w.next.Predict(tCtx, features)
			return callErr
		})
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		w.observe("circuit_open")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		w.observe("error")
		return nil, err
	}

	w.observe("success")
	return pred, nil
}

func (w *ReliabilityWrapper) observe(outcome string) {
	if w.metrics != nil {
		w.metrics.MLCalls.WithLabelValues(outcome).Inc()
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}
