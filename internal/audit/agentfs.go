package audit

/*
Файл agentfs.go реализует журнал доступа к данным пациентов (Access Trail).

- Non-blocking Logging: обработчики кладут события в буферизованный канал,
  запись в БД не влияет на время ответа API.
- Batching: события копятся в памяти и пишутся пачкой по таймеру
  или при достижении BatchSize.
- Drain Pattern: при остановке канал закрывается, воркер вычитывает остатки
  и делает финальный flush.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"go.uber.org/zap"
)

// StorageInterface определяет, куда физически сохраняются события
type StorageInterface interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []AccessEvent) error
}

type Auditor interface {
	Log(event AccessEvent)
}

type Trail struct {
	ch      chan AccessEvent
	repo    StorageInterface
	cfg     infra.AuditConfig
	metrics *infra.Metrics
	logger  *zap.Logger
	wg      sync.WaitGroup

	isClosed atomic.Bool
}

func NewTrail(repo StorageInterface, cfg infra.AuditConfig, metrics *infra.Metrics, logger *zap.Logger) *Trail {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	return &Trail{
		ch:      make(chan AccessEvent, cfg.BufferSize),
		repo:    repo,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With(zap.String("mod", "audit")),
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop запирает вход в канал и ждет, пока воркер всё допишет
func (t *Trail) Stop() {
	// 1. Сначала флаг, новые Log отбрасываются
	if !t.isClosed.CompareAndSwap(false, true) {
		return
	}

	// 2. Пауза, чтобы текущие Log успели проскочить
	time.Sleep(10 * time.Millisecond)

	// 3. Drain: закрываем канал и ждем финальный flush
	t.logger.Info("stopping access trail: closing channel and flushing buffer...")
	close(t.ch)
	t.wg.Wait()
	t.logger.Info("access trail stopped gracefully")
}

func (t *Trail) Log(event AccessEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Status == "" {
		event.Status = StatusSuccess
	}

	if t.isClosed.Load() {
		t.logger.Warn("access event dropped: trail is stopping", zap.String("id", event.ID))
		return
	}

	// Load Shedding: при переполнении не блокируем обработчик
	select {
	case t.ch <- event:
		if t.metrics != nil {
			t.metrics.AuditBufferFill.Set(float64(len(t.ch)))
		}
	default:
		t.logger.Error("audit_buffer_overflow",
			zap.Int64("actor_id", event.ActorID),
			zap.Int64("patient_id", event.PatientID),
			zap.String("action", event.Action),
			zap.String("trace_id", event.TraceID),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]AccessEvent, 0, t.cfg.BatchSize)
	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: основной контекст при остановке уже закрыт
		if err := t.repo.WriteBatch(context.Background(), batch); err != nil {
			t.logger.Error("audit flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
		if t.metrics != nil {
			t.metrics.AuditBufferFill.Set(float64(len(t.ch)))
		}
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop(): остатки уже вычитаны
				flush()
				t.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= t.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
