package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"github.com/xela07ax/ovcare-portal/internal/risk"
	"go.uber.org/zap"
)

// RiskService — оценка риска с кэшем в Redis поверх risk.Resolver
type RiskService struct {
	resolver *risk.Resolver
	repo     risk.HistoryReader
	rdb      redis.Cmdable // nil — без кэша
	ttl      time.Duration
	window   int
	metrics  *infra.Metrics
	logger   *zap.Logger
}

func NewRiskService(resolver *risk.Resolver, repo risk.HistoryReader, rdb redis.Cmdable, cfg infra.RiskConfig, metrics *infra.Metrics, logger *zap.Logger) *RiskService {
	window := cfg.HistoryWindow
	if window <= 0 {
		window = risk.DefaultWindow
	}
	return &RiskService{
		resolver: resolver,
		repo:     repo,
		rdb:      rdb,
		ttl:      cfg.CacheTTL,
		window:   window,
		metrics:  metrics,
		logger:   logger.Named("risk"),
	}
}

// Assess возвращает итоговую оценку пациента. Кэш — best effort: ошибки Redis только логируются.
func (s *RiskService) Assess(ctx context.Context, p *domain.Patient) (domain.RiskAssessment, error) {
	if a, ok := s.cached(ctx, p.ID); ok {
		return a, nil
	}

	a, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return domain.RiskAssessment{}, err
	}

	if s.metrics != nil {
		s.metrics.Assessments.WithLabelValues(string(a.Source), string(a.Tier)).Inc()
	}
	s.store(ctx, p.ID, a)
	return a, nil
}

// Summary — сводка по истории оценок; nil, если истории нет
func (s *RiskService) Summary(ctx context.Context, patientID int64) (*domain.RiskSummary, error) {
	records, err := s.repo.ListRiskRecords(ctx, patientID, s.window)
	if err != nil {
		return nil, err
	}
	return risk.Summarize(records, s.window), nil
}

// Invalidate сбрасывает кэш после нового замера
func (s *RiskService) Invalidate(ctx context.Context, patientID int64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, infra.RiskAssessmentKey(patientID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate risk cache", zap.Int64("patient_id", patientID), zap.Error(err))
	}
}

func (s *RiskService) cached(ctx context.Context, patientID int64) (domain.RiskAssessment, bool) {
	var a domain.RiskAssessment
	if s.rdb == nil || s.ttl <= 0 {
		return a, false
	}

	data, err := s.rdb.Get(ctx, infra.RiskAssessmentKey(patientID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("risk cache read failed", zap.Error(err))
		}
		return a, false
	}
	if err := json.Unmarshal(data, &a); err != nil {
		s.logger.Warn("risk cache corrupted", zap.Int64("patient_id", patientID), zap.Error(err))
		return a, false
	}
	return a, true
}

func (s *RiskService) store(ctx context.Context, patientID int64, a domain.RiskAssessment) {
	if s.rdb == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, infra.RiskAssessmentKey(patientID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("risk cache write failed", zap.Error(err))
	}
}
