package alerts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"go.uber.org/zap"
)

// NotificationWriter — куда складываются уведомления пациентам
type NotificationWriter interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// Notifier превращает сигналы о новых оценках риска в уведомления пациенту
type Notifier struct {
	repo   NotificationWriter
	logger *zap.Logger
}

func NewNotifier(repo NotificationWriter, logger *zap.Logger) *Notifier {
	return &Notifier{repo: repo, logger: logger.Named("alerts")}
}

// Run блокирует до отмены ctx
func (n *Notifier) Run(ctx context.Context, rdb *redis.Client) {
	n.logger.Info("alerts listener started", zap.String("chan", infra.RedisChanRiskAssessed))
	ListenResilient(ctx, rdb, n.logger, infra.RedisChanRiskAssessed, nil, func(payload string) {
		if err := n.Handle(ctx, payload); err != nil {
			n.logger.Error("failed to handle risk signal", zap.String("payload", payload), zap.Error(err))
		}
	})
}

// Handle разбирает сигнал "patient_id:tier" и при необходимости создает уведомление
func (n *Notifier) Handle(ctx context.Context, payload string) error {
	patientID, tier, err := ParseSignal(payload)
	if err != nil {
		return err
	}
	if !tier.Alerting() {
		return nil
	}

	note := &domain.Notification{
		UserID:   patientID,
		UserType: domain.RolePatient,
		Message:  messageFor(tier),
		Type:     domain.NotifyWarning,
	}
	if tier == domain.TierCritical {
		note.Type = domain.NotifyDanger
	}
	if err := n.repo.CreateNotification(ctx, note); err != nil {
		return fmt.Errorf("alerts: %w", err)
	}

	n.logger.Info("risk alert created",
		zap.Int64("patient_id", patientID),
		zap.String("tier", string(tier)))
	return nil
}

// FormatSignal — полезная нагрузка для infra.RedisChanRiskAssessed
func FormatSignal(patientID int64, tier domain.RiskTier) string {
	return fmt.Sprintf("%d:%s", patientID, tier)
}

func ParseSignal(payload string) (int64, domain.RiskTier, error) {
	idStr, tierStr, ok := strings.Cut(payload, ":")
	if !ok {
		return 0, "", fmt.Errorf("alerts: invalid signal format %q", payload)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("alerts: invalid patient id in %q", payload)
	}
	tier := domain.RiskTier(tierStr)
	switch tier {
	case domain.TierLow, domain.TierModerate, domain.TierHigh, domain.TierCritical:
	default:
		return 0, "", fmt.Errorf("alerts: unknown tier in %q", payload)
	}
	return id, tier, nil
}

func messageFor(tier domain.RiskTier) string {
	if tier == domain.TierCritical {
		return "Your latest readings indicate CRITICAL risk. Please contact your doctor immediately."
	}
	return "Your latest readings indicate HIGH risk. Please schedule a visit with your doctor."
}
