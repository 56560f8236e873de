package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/ovcare-portal/internal/domain"
	"go.uber.org/zap"
)

type PatientService interface {
	Dashboard(ctx context.Context, patientID int64) (*domain.PatientDashboard, error)
	Profile(ctx context.Context, patientID int64) (*domain.Patient, error)
	UpdateProfile(ctx context.Context, patientID int64, upd domain.ProfileUpdate) (*domain.Patient, error)
	AddEntry(ctx context.Context, patientID int64, in domain.BiomarkerInput) (*domain.EntryResult, error)
	History(ctx context.Context, patientID int64) (*domain.PatientHistory, error)
	Risk(ctx context.Context, patientID int64) (domain.RiskAssessment, error)
	Alerts(ctx context.Context, patientID int64) (*domain.PatientAlerts, error)
	Notifications(ctx context.Context, patientID int64) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, patientID, notificationID int64) error
	Predict(ctx context.Context, patientID int64) (*domain.PredictResponse, error)
}

// PatientHandler — кабинет пациента (/api/v1/me). Пациент всегда берется из сессии.
type PatientHandler struct {
	service PatientService
	logger  *zap.Logger
}

func NewPatientHandler(s PatientService, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{service: s, logger: logger.Named("patient-handler")}
}

func (h *PatientHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	d, err := h.service.Dashboard(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *PatientHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	profile, err := h.service.Profile(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *PatientHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var upd domain.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	profile, err := h.service.UpdateProfile(r.Context(), p.UserID, upd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *PatientHandler) ListBiomarkers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	hist, err := h.service.History(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hist.Entries)
}

func (h *PatientHandler) AddBiomarkers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in domain.BiomarkerInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := h.service.AddEntry(r.Context(), p.UserID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *PatientHandler) Risk(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	a, err := h.service.Risk(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *PatientHandler) RiskHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	hist, err := h.service.History(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (h *PatientHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	a, err := h.service.Alerts(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *PatientHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.service.Notifications(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PatientHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.MarkNotificationRead(r.Context(), p.UserID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PatientHandler) Predict(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	resp, err := h.service.Predict(r.Context(), p.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
