package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/ovcare-portal/internal/alerts"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"github.com/xela07ax/ovcare-portal/internal/risk"
	"go.uber.org/zap"
)

// Publisher — публикация сигналов в Redis Pub/Sub
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type BiomarkerService struct {
	repo   BiomarkerStore
	risks  *RiskService
	pub    Publisher // nil — сигналы не публикуются
	logger *zap.Logger
}

func NewBiomarkerService(repo BiomarkerStore, risks *RiskService, pub Publisher, logger *zap.Logger) *BiomarkerService {
	return &BiomarkerService{
		repo:   repo,
		risks:  risks,
		pub:    pub,
		logger: logger.Named("biomarkers"),
	}
}

// AddEntry сохраняет замер и первичную оценку риска по нему.
// Существование пациента проверяет вызывающий.
func (s *BiomarkerService) AddEntry(ctx context.Context, patientID int64, in domain.BiomarkerInput) (*domain.EntryResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	entry := &domain.BiomarkerEntry{
		PatientID:   patientID,
		CA125:       in.CA125,
		HE4:         in.HE4,
		HeartRate:   in.HeartRate,
		Temperature: in.Temperature,
		SleepHours:  in.SleepHours,
		Symptoms:    strings.TrimSpace(in.Symptoms),
	}
	if in.RecordedAt != nil {
		if in.RecordedAt.After(time.Now()) {
			return nil, fmt.Errorf("%w: recorded_at is in the future", domain.ErrValidation)
		}
		entry.RecordedAt = in.RecordedAt.UTC()
	}

	// 1. Замер + скорость относительно предыдущего по времени + эвристика, одной транзакцией
	record, err := s.repo.SaveEntry(ctx, entry, func(prev *domain.BiomarkerEntry) domain.RiskRecord {
		return AssessEntry(*entry, prev)
	})
	if err != nil {
		return nil, err
	}

	// 2. Старая оценка в кэше больше не актуальна
	s.risks.Invalidate(ctx, patientID)

	// 3. Сигнал слушателю уведомлений
	if s.pub != nil {
		payload := alerts.FormatSignal(patientID, record.RiskTier)
		if err := s.pub.Publish(ctx, infra.RedisChanRiskAssessed, payload).Err(); err != nil {
			s.logger.Error("failed to publish risk signal", zap.String("payload", payload), zap.Error(err))
		}
	}

	s.logger.Info("biomarker entry saved",
		zap.Int64("patient_id", patientID),
		zap.Int64("entry_id", entry.ID),
		zap.String("tier", string(record.RiskTier)))

	return &domain.EntryResult{Entry: *entry, Risk: *record}, nil
}

// AssessEntry — эвристическая оценка одного замера для risk_history
func AssessEntry(cur domain.BiomarkerEntry, prev *domain.BiomarkerEntry) domain.RiskRecord {
	ca125v, he4v := risk.VelocityBetween(cur, prev)
	score, prob := risk.HeuristicScore(risk.Reading{
		CA125:         cur.CA125,
		HE4:           cur.HE4,
		CA125Velocity: ca125v,
		HE4Velocity:   he4v,
	})
	return domain.RiskRecord{
		PatientID:     cur.PatientID,
		RiskScore:     score,
		RiskTier:      risk.TierOf(prob),
		Probability:   prob,
		CA125:         cur.CA125,
		HE4:           cur.HE4,
		CA125Velocity: ca125v,
		HE4Velocity:   he4v,
	}
}
