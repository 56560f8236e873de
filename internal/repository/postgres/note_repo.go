package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/ovcare-portal/internal/domain"
)

func (r *PortalRepo) CreateNote(ctx context.Context, n *domain.DoctorNote) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_notes (patient_id, doctor_id, note_content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		n.PatientID, n.DoctorID, n.Content,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create note: %w", err)
	}
	return nil
}

// ListNotes — заметки врачей по пациенту, новые первыми. limit <= 0 — все.
func (r *PortalRepo) ListNotes(ctx context.Context, patientID int64, limit int) ([]domain.DoctorNote, error) {
	query := `
		SELECT n.id, n.patient_id, n.doctor_id, d.name, n.note_content, n.created_at
		FROM doctor_notes n
		JOIN doctors d ON d.doctor_id = n.doctor_id
		WHERE n.patient_id = $1
		ORDER BY n.created_at DESC`
	args := []any{patientID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query notes: %w", err)
	}
	defer rows.Close()

	results := make([]domain.DoctorNote, 0)
	for rows.Next() {
		var n domain.DoctorNote
		if err := rows.Scan(&n.ID, &n.PatientID, &n.DoctorID, &n.DoctorName, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan note: %w", err)
		}
		results = append(results, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}
