package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/ovcare-portal/internal/domain"
)

// GetAnalytics собирает статистику для врача.
// Распределение считается по последней оценке каждого пациента.
func (r *PortalRepo) GetAnalytics(ctx context.Context) (*domain.Analytics, error) {
	stats := &domain.Analytics{
		RiskDistribution: make(map[domain.RiskTier]int),
	}

	// 1. Общее количество пациентов
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&stats.TotalPatients); err != nil {
		return nil, fmt.Errorf("postgres: failed to count patients: %w", err)
	}

	// 2. Распределение по уровням риска
	rows, err := r.pool.Query(ctx, `
		SELECT risk_tier, COUNT(*)
		FROM (
			SELECT DISTINCT ON (patient_id) patient_id, risk_tier
			FROM risk_history
			ORDER BY patient_id, calculated_at DESC, id DESC
		) latest
		GROUP BY risk_tier`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query risk distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier string
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan risk distribution: %w", err)
		}
		stats.RiskDistribution[domain.RiskTier(tier)] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}

	// 3. Средние значения маркеров
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(ca125), 0), COALESCE(AVG(he4), 0)
		FROM biomarker_data`).Scan(&stats.AvgCA125, &stats.AvgHE4)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to average biomarkers: %w", err)
	}

	return stats, nil
}
