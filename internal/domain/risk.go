package domain

import "time"

// RiskTier — категория риска, всегда вычисляется из вероятности через risk.TierOf
type RiskTier string

const (
	TierLow      RiskTier = "Low"
	TierModerate RiskTier = "Moderate"
	TierHigh     RiskTier = "High"
	TierCritical RiskTier = "Critical"
)

// Alerting возвращает true для уровней, о которых пациента нужно уведомить
func (t RiskTier) Alerting() bool {
	return t == TierHigh || t == TierCritical
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
)

// AssessmentSource показывает, каким путем получена оценка риска
type AssessmentSource string

const (
	SourceHistory   AssessmentSource = "history"   // Агрегация risk_history
	SourceModel     AssessmentSource = "model"     // Внешний ML-сервис
	SourceHeuristic AssessmentSource = "heuristic" // Локальные пороги
	SourceNone      AssessmentSource = "none"      // Данных нет
)

// RiskRecord — одна историческая оценка риска (строка risk_history).
// Агрегатор получает их от хранилища и никогда не модифицирует.
type RiskRecord struct {
	ID        int64    `json:"id,omitempty"`
	PatientID int64    `json:"patient_id,omitempty"`
	RiskScore float64  `json:"risk_score"`
	RiskTier  RiskTier `json:"risk_tier"`

	Probability   float64   `json:"probability"`
	CA125         float64   `json:"ca125"`
	HE4           float64   `json:"he4"`
	CA125Velocity float64   `json:"ca125_velocity"` // Отсутствующее значение = 0
	HE4Velocity   float64   `json:"he4_velocity"`
	CalculatedAt  time.Time `json:"calculated_at"`
}

// Comparison — сравнение последнего замера с базовой линией
type Comparison struct {
	BaselineCA125      float64 `json:"baseline_ca125"`
	LatestCA125        float64 `json:"latest_ca125"`
	BaselineHE4        float64 `json:"baseline_he4"`
	LatestHE4          float64 `json:"latest_he4"`
	CA125ChangePercent float64 `json:"ca125_change_percent"`
	HE4ChangePercent   float64 `json:"he4_change_percent"`
}

// RiskSummary — сглаженная оценка по истории пациента
type RiskSummary struct {
	Probability  float64    `json:"probability"`
	RiskTier     RiskTier   `json:"risk_tier"`
	Trend        Trend      `json:"trend"`
	CalculatedAt time.Time  `json:"calculated_at"`
	Comparison   Comparison `json:"comparison"`
}

// RiskAssessment — единый объект, который отдается дашбордам независимо от источника
type RiskAssessment struct {
	Source       AssessmentSource  `json:"source"`
	Probability  *float64          `json:"probability"`
	Tier         RiskTier          `json:"risk_tier,omitempty"`
	Color        string            `json:"color"`
	Trend        Trend             `json:"trend,omitempty"`
	CalculatedAt *time.Time        `json:"calculated_at,omitempty"`
	Comparison   *Comparison       `json:"comparison,omitempty"`
	Explanation  map[string]string `json:"explanation,omitempty"`
}

// Prediction — ответ внешнего ML-сервиса. Оба поля опциональны.
type Prediction struct {
	Risk        *int     `json:"risk,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	RiskTier    string   `json:"risk_tier,omitempty"` // Игнорируется: уровень считаем сами
	Version     string   `json:"model_version,omitempty"`
}

// PredictResponse — ответ эндпоинта /me/predict
type PredictResponse struct {
	Risk        *int              `json:"risk"`
	Probability *float64          `json:"probability,omitempty"`
	Tier        RiskTier          `json:"risk_tier,omitempty"`
	Explanation map[string]string `json:"explanation"`
}
