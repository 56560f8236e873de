package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/xela07ax/ovcare-portal/internal/domain"
	"go.uber.org/zap"
)

// HistoryReader — то, что резолверу нужно от хранилища
type HistoryReader interface {
	ListRiskRecords(ctx context.Context, patientID int64, limit int) ([]domain.RiskRecord, error)
	ListLatestEntries(ctx context.Context, patientID int64, limit int) ([]domain.BiomarkerEntry, error)
}

// Predictor — внешний ML-сервис (обычно mlclient.ReliabilityWrapper)
type Predictor interface {
	Predict(ctx context.Context, features map[string]any) (*domain.Prediction, error)
}

// Resolver выбирает источник оценки по приоритету:
// агрегированная история -> внешняя модель -> локальная эвристика -> "нет данных".
type Resolver struct {
	repo      HistoryReader
	predictor Predictor // может быть nil, тогда шаг модели пропускается
	window    int
	logger    *zap.Logger
}

func NewResolver(repo HistoryReader, predictor Predictor, window int, logger *zap.Logger) *Resolver {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Resolver{
		repo:      repo,
		predictor: predictor,
		window:    window,
		logger:    logger.Named("risk-resolver"),
	}
}

// Resolve строит оценку риска пациента. Ошибки модели не всплывают наружу —
// только логируются, после чего используется эвристика.
func (r *Resolver) Resolve(ctx context.Context, p *domain.Patient) (domain.RiskAssessment, error) {
	// 1. История оценок
	records, err := r.repo.ListRiskRecords(ctx, p.ID, r.window)
	if err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("resolver: risk history: %w", err)
	}
	if s := Summarize(records, r.window); s != nil {
		return FromSummary(s), nil
	}

	// 2. Последний и предыдущий замеры (предыдущий нужен для скорости)
	entries, err := r.repo.ListLatestEntries(ctx, p.ID, 2)
	if err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("resolver: biomarkers: %w", err)
	}
	if len(entries) == 0 {
		return NoData(), nil
	}
	latest := entries[0]
	var prev *domain.BiomarkerEntry
	if len(entries) > 1 {
		prev = &entries[1]
	}

	// 3. Внешняя модель
	if r.predictor != nil {
		pred, err := r.predictor.Predict(ctx, FeaturesFor(p.Age, latest))
		if err != nil {
			r.logger.Warn("ml prediction unavailable, falling back to heuristic",
				zap.Int64("patient_id", p.ID), zap.Error(err))
		} else if prob, ok := FromPrediction(pred); ok {
			a := assessment(domain.SourceModel, prob, latest.RecordedAt)
			a.Explanation = Explain(latest.CA125, latest.HE4, latest.Symptoms)
			return a, nil
		}
	}

	// 4. Эвристика
	ca125v, he4v := VelocityBetween(latest, prev)
	prob, _ := Heuristic(Reading{CA125: latest.CA125, HE4: latest.HE4, CA125Velocity: ca125v, HE4Velocity: he4v})
	a := assessment(domain.SourceHeuristic, prob, latest.RecordedAt)
	a.Explanation = Explain(latest.CA125, latest.HE4, latest.Symptoms)
	return a, nil
}

// FromSummary переводит сводку истории в общий формат оценки
func FromSummary(s *domain.RiskSummary) domain.RiskAssessment {
	a := assessment(domain.SourceHistory, s.Probability, s.CalculatedAt)
	a.Trend = s.Trend
	cmp := s.Comparison
	a.Comparison = &cmp
	return a
}

// NoData — оценка при полном отсутствии данных
func NoData() domain.RiskAssessment {
	return domain.RiskAssessment{Source: domain.SourceNone, Color: ColorOf("")}
}

func assessment(src domain.AssessmentSource, prob float64, at time.Time) domain.RiskAssessment {
	tier := TierOf(prob)
	return domain.RiskAssessment{
		Source:       src,
		Probability:  &prob,
		Tier:         tier,
		Color:        ColorOf(tier),
		CalculatedAt: &at,
	}
}
