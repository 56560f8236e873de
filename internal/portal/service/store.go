package service

import (
	"context"

	"github.com/xela07ax/ovcare-portal/internal/domain"
)

// Интерфейсы хранилища, которые нужны сервисам. Реализуются postgres.PortalRepo.

type AccountStore interface {
	GetPatientByEmail(ctx context.Context, email string) (*domain.Patient, error)
	GetPatientByID(ctx context.Context, id int64) (*domain.Patient, error)
	GetDoctorByEmail(ctx context.Context, email string) (*domain.Doctor, error)
	CreatePatient(ctx context.Context, p *domain.Patient) error
	UpdatePatientProfile(ctx context.Context, p *domain.Patient) error
	UpdatePatientPassword(ctx context.Context, id int64, hash string) error
	ListPatients(ctx context.Context) ([]*domain.Patient, error)
}

type BiomarkerStore interface {
	ListLatestEntries(ctx context.Context, patientID int64, limit int) ([]domain.BiomarkerEntry, error)
	ListEntries(ctx context.Context, patientID int64) ([]domain.BiomarkerEntry, error)
	CountEntries(ctx context.Context, patientID int64) (int, error)
	SaveEntry(ctx context.Context, entry *domain.BiomarkerEntry, assess func(prev *domain.BiomarkerEntry) domain.RiskRecord) (*domain.RiskRecord, error)
	ListRiskRecords(ctx context.Context, patientID int64, limit int) ([]domain.RiskRecord, error)
}

type NoteStore interface {
	CreateNote(ctx context.Context, n *domain.DoctorNote) error
	ListNotes(ctx context.Context, patientID int64, limit int) ([]domain.DoctorNote, error)
}

type NotificationStore interface {
	ListNotifications(ctx context.Context, userID int64, role domain.Role, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64, role domain.Role) (int, error)
	MarkRead(ctx context.Context, id, userID int64, role domain.Role) error
}

type AnalyticsStore interface {
	GetAnalytics(ctx context.Context) (*domain.Analytics, error)
}

// Store — полный набор, который собирается в main из одного репозитория
type Store interface {
	AccountStore
	BiomarkerStore
	NoteStore
	NotificationStore
	AnalyticsStore
}
