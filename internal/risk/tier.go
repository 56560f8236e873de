package risk

import "github.com/xela07ax/ovcare-portal/internal/domain"

// Пороговые значения уровней риска
const (
	ThresholdLow      = 0.25
	ThresholdModerate = 0.50
	ThresholdHigh     = 0.75
)

// TierOf — единственный способ получить уровень риска из вероятности.
// Диапазоны: [.., 0.25) Low, [0.25, 0.5) Moderate, [0.5, 0.75) High, [0.75, ..] Critical.
func TierOf(p float64) domain.RiskTier {
	switch {
	case p < ThresholdLow:
		return domain.TierLow
	case p < ThresholdModerate:
		return domain.TierModerate
	case p < ThresholdHigh:
		return domain.TierHigh
	default:
		return domain.TierCritical
	}
}

// ColorOf — цвет уровня для фронтенда
func ColorOf(t domain.RiskTier) string {
	switch t {
	case domain.TierLow:
		return "#10b981" // green
	case domain.TierModerate:
		return "#f59e0b" // amber
	case domain.TierHigh:
		return "#ef4444" // red
	case domain.TierCritical:
		return "#dc2626" // dark red
	default:
		return "#6b7280" // gray
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
