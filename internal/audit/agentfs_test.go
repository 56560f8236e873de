package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"go.uber.org/zap"
)

type memStorage struct {
	mu      sync.Mutex
	batches [][]AccessEvent
	err     error
}

func (m *memStorage) WriteBatch(_ context.Context, events []AccessEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]AccessEvent, len(events))
	copy(cp, events)
	m.batches = append(m.batches, cp)
	return m.err
}

func (m *memStorage) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func (m *memStorage) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func TestTrail_FlushesOnStop(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, infra.AuditConfig{BatchSize: 100, FlushInterval: time.Hour}, nil, zap.NewNop())
	trail.Start()

	for i := 0; i < 7; i++ {
		trail.Log(AccessEvent{ActorID: 1, PatientID: int64(i), Action: "view_patient"})
	}
	trail.Stop()

	require.Equal(t, 7, store.total())
	ev := store.batches[0][0]
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, StatusSuccess, ev.Status)
}

func TestTrail_FlushesByBatchSize(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, infra.AuditConfig{BatchSize: 3, FlushInterval: time.Hour}, nil, zap.NewNop())
	trail.Start()

	for i := 0; i < 6; i++ {
		trail.Log(AccessEvent{ActorID: 2, PatientID: 9, Action: "add_note"})
	}

	assert.Eventually(t, func() bool { return store.batchCount() == 2 }, time.Second, 5*time.Millisecond)
	trail.Stop()
	assert.Equal(t, 6, store.total())
}

func TestTrail_FlushesByTicker(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, infra.AuditConfig{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, nil, zap.NewNop())
	trail.Start()
	defer trail.Stop()

	trail.Log(AccessEvent{ActorID: 3, PatientID: 3, Action: "view_patient"})
	assert.Eventually(t, func() bool { return store.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestTrail_DropsAfterStop(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, infra.AuditConfig{}, nil, zap.NewNop())
	trail.Start()
	trail.Stop()

	trail.Log(AccessEvent{ActorID: 1, PatientID: 1, Action: "view_patient"})
	trail.Stop() // Повторный Stop безопасен
	assert.Equal(t, 0, store.total())
}

func TestTrail_StorageErrorDoesNotStopWorker(t *testing.T) {
	store := &memStorage{err: errors.New("db down")}
	trail := NewTrail(store, infra.AuditConfig{BatchSize: 1, FlushInterval: time.Hour}, nil, zap.NewNop())
	trail.Start()

	trail.Log(AccessEvent{ActorID: 1, PatientID: 1, Action: "a"})
	trail.Log(AccessEvent{ActorID: 1, PatientID: 1, Action: "b"})
	trail.Stop()

	assert.Equal(t, 2, store.batchCount())
}
