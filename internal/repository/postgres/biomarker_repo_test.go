package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
)

// newTestRepo поднимает репозиторий на живой базе из OVCARE_TEST_DATABASE_URL
// и накатывает схему. Без переменной тест пропускается.
func newTestRepo(t *testing.T) *PortalRepo {
	t.Helper()
	url := os.Getenv("OVCARE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("OVCARE_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, infra.DatabaseConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return NewPortalRepo(pool)
}

func newTestPatient(t *testing.T, repo *PortalRepo) *domain.Patient {
	t.Helper()
	p := &domain.Patient{
		Name:         "Anna",
		Email:        uuid.NewString() + "@example.com",
		Age:          50,
		PasswordHash: "x",
	}
	require.NoError(t, repo.CreatePatient(context.Background(), p))
	return p
}

// keepPrev возвращает оценку, в которой виден найденный предыдущий замер
func keepPrev(seen **domain.BiomarkerEntry) func(prev *domain.BiomarkerEntry) domain.RiskRecord {
	return func(prev *domain.BiomarkerEntry) domain.RiskRecord {
		*seen = prev
		return domain.RiskRecord{RiskTier: domain.TierLow, Probability: 0.1}
	}
}

func TestSaveEntry_PreviousReading(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := newTestPatient(t, repo)
	base := time.Now().Add(-72 * time.Hour).UTC().Truncate(time.Microsecond)

	var seen *domain.BiomarkerEntry

	// 1. Первый замер: предыдущего нет
	first := &domain.BiomarkerEntry{PatientID: p.ID, CA125: 10, HE4: 40, RecordedAt: base}
	rec, err := repo.SaveEntry(ctx, first, keepPrev(&seen))
	require.NoError(t, err)
	assert.Nil(t, seen)
	assert.True(t, base.Equal(rec.CalculatedAt))

	// 2. Текущее время: предыдущий — первый
	second := &domain.BiomarkerEntry{PatientID: p.ID, CA125: 20, HE4: 40}
	_, err = repo.SaveEntry(ctx, second, keepPrev(&seen))
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, first.ID, seen.ID)
	assert.False(t, second.RecordedAt.IsZero())

	// 3. Задним числом между ними: предыдущий — снова первый
	middle := &domain.BiomarkerEntry{PatientID: p.ID, CA125: 15, HE4: 40, RecordedAt: base.Add(24 * time.Hour)}
	rec, err = repo.SaveEntry(ctx, middle, keepPrev(&seen))
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, first.ID, seen.ID)
	assert.True(t, middle.RecordedAt.Equal(rec.CalculatedAt))

	entries, err := repo.ListEntries(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{first.ID, middle.ID, second.ID}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})

	records, err := repo.ListRiskRecords(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestNullTime(t *testing.T) {
	assert.Nil(t, nullTime(time.Time{}))
	now := time.Now()
	require.NotNil(t, nullTime(now))
	assert.True(t, now.Equal(*nullTime(now)))
}
