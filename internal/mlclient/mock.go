package mlclient

import (
	"context"
	"math/rand/v2" // Используем v2 для Go 1.25
	"time"

	"github.com/xela07ax/ovcare-portal/internal/domain"
)

// MockPredictor — локальная заглушка модели для разработки без Flask-сервиса (ml.mock: true).
// Возвращает детерминированную вероятность по уровню маркеров.
type MockPredictor struct{}

func (MockPredictor) Predict(ctx context.Context, features map[string]any) (*domain.Prediction, error) {
	// Имитируем задержку 20-120мс
	latency := time.Duration(20+rand.IntN(100)) * time.Millisecond

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ca125, _ := features["CA125_Level"].(float64)
	he4, _ := features["HE4_Level"].(float64)

	prob := 0.05
	if ca125 > 35 {
		prob += 0.35
	}
	if he4 > 140 {
		prob += 0.35
	}

	risk := 0
	if prob >= 0.5 {
		risk = 1
	}
	return &domain.Prediction{Risk: &risk, Probability: &prob, Version: "mock"}, nil
}
