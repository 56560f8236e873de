package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/ovcare-portal/internal/domain"
)

// dbtx — общий знаменатель пула и транзакции
type dbtx interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertRiskRecord(ctx context.Context, db dbtx, rec *domain.RiskRecord) error {
	return db.QueryRow(ctx, `
		INSERT INTO risk_history
			(patient_id, risk_score, risk_tier, probability, ca125, he4, ca125_velocity, he4_velocity, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		RETURNING id, calculated_at`,
		rec.PatientID, rec.RiskScore, string(rec.RiskTier), rec.Probability,
		rec.CA125, rec.HE4, rec.CA125Velocity, rec.HE4Velocity, nullTime(rec.CalculatedAt),
	).Scan(&rec.ID, &rec.CalculatedAt)
}

func (r *PortalRepo) CreateRiskRecord(ctx context.Context, rec *domain.RiskRecord) error {
	if err := insertRiskRecord(ctx, r.pool, rec); err != nil {
		return fmt.Errorf("postgres: failed to insert risk record: %w", err)
	}
	return nil
}

// ListRiskRecords — последние limit оценок, от новых к старым.
// limit <= 0 — вся история.
func (r *PortalRepo) ListRiskRecords(ctx context.Context, patientID int64, limit int) ([]domain.RiskRecord, error) {
	query := `
		SELECT id, patient_id, risk_score, risk_tier, probability, ca125, he4,
		       COALESCE(ca125_velocity, 0), COALESCE(he4_velocity, 0), calculated_at
		FROM risk_history
		WHERE patient_id = $1
		ORDER BY calculated_at DESC, id DESC`
	args := []any{patientID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query risk history: %w", err)
	}
	defer rows.Close()

	results := make([]domain.RiskRecord, 0)
	for rows.Next() {
		var rec domain.RiskRecord
		var tier string
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.RiskScore, &tier, &rec.Probability,
			&rec.CA125, &rec.HE4, &rec.CA125Velocity, &rec.HE4Velocity, &rec.CalculatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan risk record: %w", err)
		}
		rec.RiskTier = domain.RiskTier(tier)
		results = append(results, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}
