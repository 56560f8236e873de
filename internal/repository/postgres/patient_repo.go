package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/ovcare-portal/internal/domain"
)

const patientColumns = `id, name, email, password_hash, age, phone, date_of_birth, medical_history, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*domain.Patient, error) {
	p := &domain.Patient{}
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Age,
		&p.Phone, &p.DateOfBirth, &p.MedicalHistory, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PortalRepo) GetPatientByEmail(ctx context.Context, email string) (*domain.Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE email = $1`, email)
	p, err := scanPatient(row)
	if err != nil {
		return nil, notFound(err, "patient")
	}
	return p, nil
}

func (r *PortalRepo) GetPatientByID(ctx context.Context, id int64) (*domain.Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		return nil, notFound(err, "patient")
	}
	return p, nil
}

// CreatePatient вставляет пациента и проставляет ID/CreatedAt
func (r *PortalRepo) CreatePatient(ctx context.Context, p *domain.Patient) error {
	query := `
		INSERT INTO patients (name, email, password_hash, age, phone, date_of_birth)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, p.Name, p.Email, p.PasswordHash, p.Age, p.Phone, p.DateOfBirth).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("postgres: failed to create patient: %w", err)
	}
	return nil
}

func (r *PortalRepo) UpdatePatientProfile(ctx context.Context, p *domain.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, email = $2, phone = $3, date_of_birth = $4, medical_history = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query, p.Name, p.Email, p.Phone, p.DateOfBirth, p.MedicalHistory, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("postgres: failed to update profile: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("patient %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *PortalRepo) UpdatePatientPassword(ctx context.Context, id int64, hash string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE patients SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("patient %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListPatients — все пациенты по алфавиту (дашборд врача)
func (r *PortalRepo) ListPatients(ctx context.Context) ([]*domain.Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query patients: %w", err)
	}
	defer rows.Close()

	// Инициализируем пустой слайс, чтобы в JSON был [] вместо null
	results := make([]*domain.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan patient: %w", err)
		}
		results = append(results, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

func (r *PortalRepo) GetDoctorByEmail(ctx context.Context, email string) (*domain.Doctor, error) {
	d := &domain.Doctor{}
	err := r.pool.QueryRow(ctx,
		`SELECT doctor_id, name, email, specialization, password_hash FROM doctors WHERE email = $1`, email).
		Scan(&d.ID, &d.Name, &d.Email, &d.Specialization, &d.PasswordHash)
	if err != nil {
		return nil, notFound(err, "doctor")
	}
	return d, nil
}
