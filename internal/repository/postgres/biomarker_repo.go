package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/ovcare-portal/internal/domain"
)

const entryColumns = `id, patient_id, ca125, he4, heart_rate, temperature, sleep_hours, symptoms, recorded_at`

func scanEntry(row rowScanner) (domain.BiomarkerEntry, error) {
	var e domain.BiomarkerEntry
	err := row.Scan(&e.ID, &e.PatientID, &e.CA125, &e.HE4, &e.HeartRate,
		&e.Temperature, &e.SleepHours, &e.Symptoms, &e.RecordedAt)
	return e, err
}

func collectEntries(rows pgx.Rows) ([]domain.BiomarkerEntry, error) {
	defer rows.Close()

	results := make([]domain.BiomarkerEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan biomarker entry: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

// ListLatestEntries — последние limit замеров, от новых к старым
func (r *PortalRepo) ListLatestEntries(ctx context.Context, patientID int64, limit int) ([]domain.BiomarkerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM biomarker_data
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query biomarkers: %w", err)
	}
	return collectEntries(rows)
}

// ListEntries — вся история замеров по возрастанию времени (для графиков)
func (r *PortalRepo) ListEntries(ctx context.Context, patientID int64) ([]domain.BiomarkerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM biomarker_data
		WHERE patient_id = $1
		ORDER BY recorded_at ASC, id ASC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query biomarkers: %w", err)
	}
	return collectEntries(rows)
}

func (r *PortalRepo) CountEntries(ctx context.Context, patientID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM biomarker_data WHERE patient_id = $1`, patientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to count biomarkers: %w", err)
	}
	return n, nil
}

// SaveEntry атомарно сохраняет замер и оценку риска по нему.
// Пустой entry.RecordedAt — текущее время БД. Предыдущим считается последний замер
// строго раньше нового; assess получает его (или nil) и возвращает запись для risk_history,
// calculated_at которой совпадает со временем замера.
func (r *PortalRepo) SaveEntry(
	ctx context.Context,
	entry *domain.BiomarkerEntry,
	assess func(prev *domain.BiomarkerEntry) domain.RiskRecord,
) (*domain.RiskRecord, error) {
	var record domain.RiskRecord

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// 1. Предыдущий замер берем внутри транзакции, до вставки нового
		var prev *domain.BiomarkerEntry
		p, err := scanEntry(tx.QueryRow(ctx, `
			SELECT `+entryColumns+`
			FROM biomarker_data
			WHERE patient_id = $1
			  AND ($2::timestamptz IS NULL OR recorded_at < $2)
			ORDER BY recorded_at DESC, id DESC
			LIMIT 1`, entry.PatientID, nullTime(entry.RecordedAt)))
		switch {
		case err == nil:
			prev = &p
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("previous entry: %w", err)
		}

		// 2. Сам замер
		err = tx.QueryRow(ctx, `
			INSERT INTO biomarker_data (patient_id, ca125, he4, heart_rate, temperature, sleep_hours, symptoms, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
			RETURNING id, recorded_at`,
			entry.PatientID, entry.CA125, entry.HE4, entry.HeartRate,
			entry.Temperature, entry.SleepHours, entry.Symptoms, nullTime(entry.RecordedAt),
		).Scan(&entry.ID, &entry.RecordedAt)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}

		// 3. Оценка и запись в историю
		record = assess(prev)
		record.PatientID = entry.PatientID
		record.CalculatedAt = entry.RecordedAt
		return insertRiskRecord(ctx, tx, &record)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to save biomarker entry: %w", err)
	}
	return &record, nil
}

// nullTime — нулевое время уходит в БД как NULL
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
