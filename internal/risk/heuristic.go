package risk

import "github.com/xela07ax/ovcare-portal/internal/domain"

// Пороги эвристики для одиночного замера
const (
	CA125Limit = 35.0
	HE4Limit   = 140.0
)

// Reading — одиночный замер с уже посчитанными скоростями
type Reading struct {
	CA125         float64
	HE4           float64
	CA125Velocity float64
	HE4Velocity   float64
}

// HeuristicScore — запасной скоринг по фиксированному списку правил.
// Возвращает сырую сумму весов и вероятность после clamp.
func HeuristicScore(r Reading) (score, probability float64) {
	if r.CA125 > CA125Limit {
		score += 0.3
	}
	if r.HE4 > HE4Limit {
		score += 0.3
	}
	if r.CA125Velocity > velocityCA125Limit {
		score += 0.2
	}
	if r.HE4Velocity > velocityHE4Limit {
		score += 0.2
	}
	return score, clamp(score, 0, 1)
}

// Heuristic возвращает вероятность и согласованный с ней уровень
func Heuristic(r Reading) (float64, domain.RiskTier) {
	_, p := HeuristicScore(r)
	return p, TierOf(p)
}
