package service

import (
	"context"
	"strings"

	"github.com/xela07ax/ovcare-portal/internal/audit"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"go.uber.org/zap"
)

const (
	viewEntriesLimit = 50
	viewRiskLimit    = 30
	viewNotesLimit   = 10
)

// DoctorService — кабинет врача. Каждое обращение к данным пациента пишется в журнал доступа.
type DoctorService struct {
	repo       Store
	risks      *RiskService
	biomarkers *BiomarkerService
	auditor    audit.Auditor
	logger     *zap.Logger
}

func NewDoctorService(repo Store, risks *RiskService, biomarkers *BiomarkerService, auditor audit.Auditor, logger *zap.Logger) *DoctorService {
	return &DoctorService{
		repo:       repo,
		risks:      risks,
		biomarkers: biomarkers,
		auditor:    auditor,
		logger:     logger.Named("doctor"),
	}
}

// Dashboard — все пациенты с последним замером, оценкой и счетчиками по уровням
func (s *DoctorService) Dashboard(ctx context.Context, doctorID int64) (*domain.DoctorDashboard, error) {
	patients, err := s.repo.ListPatients(ctx)
	if err != nil {
		return nil, err
	}

	d := &domain.DoctorDashboard{
		Patients: make([]domain.PatientRow, 0, len(patients)),
		RiskStats: map[domain.RiskTier]int{
			domain.TierLow: 0, domain.TierModerate: 0, domain.TierHigh: 0, domain.TierCritical: 0,
		},
	}

	for _, p := range patients {
		row := domain.PatientRow{ID: p.ID, Name: p.Name, Email: p.Email, Age: p.Age}

		latest, err := s.repo.ListLatestEntries(ctx, p.ID, 1)
		if err != nil {
			return nil, err
		}
		if len(latest) > 0 {
			e := latest[0]
			row.CA125, row.HE4 = &e.CA125, &e.HE4
			row.RecordedAt = timePtr(e.RecordedAt)
		}

		row.Risk, err = s.risks.Assess(ctx, p)
		if err != nil {
			return nil, err
		}
		if row.Risk.Tier != "" {
			d.RiskStats[row.Risk.Tier]++
		}
		d.Patients = append(d.Patients, row)
	}

	s.logger.Debug("doctor dashboard built", zap.Int64("doctor_id", doctorID), zap.Int("patients", len(patients)))
	return d, nil
}

func (s *DoctorService) Analytics(ctx context.Context) (*domain.Analytics, error) {
	return s.repo.GetAnalytics(ctx)
}

// PatientView — карточка пациента
func (s *DoctorService) PatientView(ctx context.Context, doctorID, patientID int64) (*domain.PatientView, error) {
	p, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListLatestEntries(ctx, patientID, viewEntriesLimit)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListRiskRecords(ctx, patientID, viewRiskLimit)
	if err != nil {
		return nil, err
	}
	notes, err := s.repo.ListNotes(ctx, patientID, viewNotesLimit)
	if err != nil {
		return nil, err
	}
	summary, err := s.risks.Summary(ctx, patientID)
	if err != nil {
		return nil, err
	}

	s.trace(ctx, doctorID, patientID, "view_patient", nil)

	return &domain.PatientView{
		Patient:     p,
		Biomarkers:  entries,
		RiskHistory: records,
		Notes:       notes,
		Summary:     summary,
		Chart:       buildChart(reversed(entries)),
	}, nil
}

func (s *DoctorService) AddNote(ctx context.Context, doctorID, patientID int64, in domain.NoteInput) (*domain.DoctorNote, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}

	note := &domain.DoctorNote{
		PatientID: patientID,
		DoctorID:  doctorID,
		Content:   strings.TrimSpace(in.Content),
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	s.trace(ctx, doctorID, patientID, "add_note", map[string]any{"note_id": note.ID})
	return note, nil
}

// AddEntry — ввод замера врачом за существующего пациента
func (s *DoctorService) AddEntry(ctx context.Context, doctorID, patientID int64, in domain.BiomarkerInput) (*domain.EntryResult, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}

	res, err := s.biomarkers.AddEntry(ctx, patientID, in)
	if err != nil {
		return nil, err
	}

	s.trace(ctx, doctorID, patientID, "add_biomarkers", map[string]any{"entry_id": res.Entry.ID})
	return res, nil
}

func (s *DoctorService) trace(ctx context.Context, doctorID, patientID int64, action string, details map[string]any) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(audit.AccessEvent{
		TraceID:   infra.TraceIDFrom(ctx),
		ActorID:   doctorID,
		ActorRole: string(domain.RoleDoctor),
		PatientID: patientID,
		Action:    action,
		Status:    audit.StatusSuccess,
		Details:   details,
	})
}
