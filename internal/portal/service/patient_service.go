package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/risk"
	"go.uber.org/zap"
)

const (
	historyEntriesLimit = 100
	historyRiskLimit    = 50
	notificationsLimit  = 50
)

// PatientService — всё, что пациент видит и меняет в своем кабинете
type PatientService struct {
	repo       Store
	risks      *RiskService
	biomarkers *BiomarkerService
	predictor  risk.Predictor // nil — модель не настроена
	logger     *zap.Logger
}

func NewPatientService(repo Store, risks *RiskService, biomarkers *BiomarkerService, predictor risk.Predictor, logger *zap.Logger) *PatientService {
	return &PatientService{
		repo:       repo,
		risks:      risks,
		biomarkers: biomarkers,
		predictor:  predictor,
		logger:     logger.Named("patient"),
	}
}

func (s *PatientService) Dashboard(ctx context.Context, patientID int64) (*domain.PatientDashboard, error) {
	p, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListEntries(ctx, patientID)
	if err != nil {
		return nil, err
	}

	assessment, err := s.risks.Assess(ctx, p)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, patientID, domain.RolePatient)
	if err != nil {
		return nil, err
	}

	d := &domain.PatientDashboard{
		Patient:       p,
		Chart:         buildChart(entries),
		Risk:          assessment,
		UnreadAlerts:  unread,
		TotalReadings: len(entries),
	}
	if n := len(entries); n > 0 {
		latest := entries[n-1]
		d.Latest = &latest
	}
	return d, nil
}

func (s *PatientService) Profile(ctx context.Context, patientID int64) (*domain.Patient, error) {
	return s.repo.GetPatientByID(ctx, patientID)
}

func (s *PatientService) UpdateProfile(ctx context.Context, patientID int64, upd domain.ProfileUpdate) (*domain.Patient, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	dob, err := parseDate(upd.DateOfBirth)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(upd.Name)
	p.Email = normalizeEmail(upd.Email)
	p.Phone = upd.Phone
	p.DateOfBirth = dob
	p.MedicalHistory = upd.MedicalHistory

	if err := s.repo.UpdatePatientProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddEntry — замер пациента всегда датируется текущим временем
func (s *PatientService) AddEntry(ctx context.Context, patientID int64, in domain.BiomarkerInput) (*domain.EntryResult, error) {
	in.RecordedAt = nil
	return s.biomarkers.AddEntry(ctx, patientID, in)
}

// History — последние 100 замеров и 50 оценок, новые первыми
func (s *PatientService) History(ctx context.Context, patientID int64) (*domain.PatientHistory, error) {
	entries, err := s.repo.ListLatestEntries(ctx, patientID, historyEntriesLimit)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListRiskRecords(ctx, patientID, historyRiskLimit)
	if err != nil {
		return nil, err
	}
	return &domain.PatientHistory{Entries: entries, Risk: records}, nil
}

func (s *PatientService) Risk(ctx context.Context, patientID int64) (domain.RiskAssessment, error) {
	p, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	return s.risks.Assess(ctx, p)
}

// Alerts — заметки врачей и сводка по истории оценок
func (s *PatientService) Alerts(ctx context.Context, patientID int64) (*domain.PatientAlerts, error) {
	notes, err := s.repo.ListNotes(ctx, patientID, 0)
	if err != nil {
		return nil, err
	}
	summary, err := s.risks.Summary(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &domain.PatientAlerts{Notes: notes, Summary: summary}, nil
}

func (s *PatientService) Notifications(ctx context.Context, patientID int64) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, patientID, domain.RolePatient, notificationsLimit)
}

func (s *PatientService) MarkNotificationRead(ctx context.Context, patientID, notificationID int64) error {
	return s.repo.MarkRead(ctx, notificationID, patientID, domain.RolePatient)
}

// Predict отправляет последний замер пациента в модель.
// Нет замеров — пустой ответ; модель недоступна — domain.ErrModelUnavailable.
func (s *PatientService) Predict(ctx context.Context, patientID int64) (*domain.PredictResponse, error) {
	p, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListLatestEntries(ctx, patientID, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &domain.PredictResponse{}, nil
	}
	latest := entries[0]

	if s.predictor == nil {
		return nil, domain.ErrModelUnavailable
	}
	pred, err := s.predictor.Predict(ctx, risk.FeaturesFor(p.Age, latest))
	if err != nil {
		s.logger.Warn("prediction failed", zap.Int64("patient_id", patientID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}

	prob, ok := risk.FromPrediction(pred)
	if !ok {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, errors.New("empty prediction"))
	}

	resp := &domain.PredictResponse{
		Risk:        pred.Risk,
		Probability: &prob,
		Tier:        risk.TierOf(prob),
		Explanation: risk.Explain(latest.CA125, latest.HE4, latest.Symptoms),
	}
	if resp.Risk == nil {
		flag := 0
		if prob >= 0.5 {
			flag = 1
		}
		resp.Risk = &flag
	}
	return resp, nil
}
