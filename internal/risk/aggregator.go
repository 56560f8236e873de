package risk

import "github.com/xela07ax/ovcare-portal/internal/domain"

// DefaultWindow — сколько последних оценок участвует в базовой линии
const DefaultWindow = 10

// Коэффициенты тренда. Не конфигурируются.
const (
	trendRiseRatio = 1.1
	trendFallRatio = 0.9
	trendRiseStep  = 0.10
	trendFallStep  = 0.10

	velocityCA125Limit = 5.0
	velocityHE4Limit   = 10.0
	velocityStep       = 0.15

	historyWeight = 0.7
	latestWeight  = 0.3
)

type baseline struct {
	probability float64
	ca125       float64
	he4         float64
}

// Summarize сглаживает историю оценок пациента (records отсортированы от новых к старым).
// Возвращает nil, если истории нет. limit <= 0 означает DefaultWindow.
func Summarize(records []domain.RiskRecord, limit int) *domain.RiskSummary {
	if len(records) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultWindow
	}
	if len(records) > limit {
		records = records[:limit]
	}

	latest := records[0]
	base := baselineOf(records)

	// 1. Тренд относительно базовой линии и скорость роста маркеров
	multiplier := 1.0
	if latest.CA125 > base.ca125*trendRiseRatio {
		multiplier += trendRiseStep
	}
	if latest.HE4 > base.he4*trendRiseRatio {
		multiplier += trendRiseStep
	}
	if latest.CA125Velocity > velocityCA125Limit {
		multiplier += velocityStep
	}
	if latest.HE4Velocity > velocityHE4Limit {
		multiplier += velocityStep
	}
	if latest.CA125 < base.ca125*trendFallRatio && latest.HE4 < base.he4*trendFallRatio {
		multiplier -= trendFallStep
	}

	// 2. Скорректированная история + последнее наблюдение (70/30).
	// latest может прийти вне [0,1].
	adjusted := clamp(base.probability*multiplier, 0, 1)
	final := clamp(adjusted*historyWeight+latest.Probability*latestWeight, 0, 1)

	trend := domain.TrendStable
	if latest.Probability > base.probability {
		trend = domain.TrendIncreasing
	}

	return &domain.RiskSummary{
		Probability:  final,
		RiskTier:     TierOf(final),
		Trend:        trend,
		CalculatedAt: latest.CalculatedAt,
		Comparison: domain.Comparison{
			BaselineCA125:      base.ca125,
			LatestCA125:        latest.CA125,
			BaselineHE4:        base.he4,
			LatestHE4:          latest.HE4,
			CA125ChangePercent: percentChange(latest.CA125, base.ca125),
			HE4ChangePercent:   percentChange(latest.HE4, base.he4),
		},
	}
}

func baselineOf(records []domain.RiskRecord) baseline {
	var b baseline
	for _, r := range records {
		b.probability += r.Probability
		b.ca125 += r.CA125
		b.he4 += r.HE4
	}
	n := float64(len(records))
	b.probability /= n
	b.ca125 /= n
	b.he4 /= n
	return b
}

// percentChange — 0 при нулевой базе, без деления на ноль
func percentChange(latest, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (latest - base) / base * 100
}
