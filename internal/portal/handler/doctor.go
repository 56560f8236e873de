package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/ovcare-portal/internal/domain"
	"go.uber.org/zap"
)

type DoctorService interface {
	Dashboard(ctx context.Context, doctorID int64) (*domain.DoctorDashboard, error)
	Analytics(ctx context.Context) (*domain.Analytics, error)
	PatientView(ctx context.Context, doctorID, patientID int64) (*domain.PatientView, error)
	AddNote(ctx context.Context, doctorID, patientID int64, in domain.NoteInput) (*domain.DoctorNote, error)
	AddEntry(ctx context.Context, doctorID, patientID int64, in domain.BiomarkerInput) (*domain.EntryResult, error)
}

// DoctorHandler — кабинет врача (/api/v1/doctor)
type DoctorHandler struct {
	service DoctorService
	logger  *zap.Logger
}

func NewDoctorHandler(s DoctorService, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{service: s, logger: logger.Named("doctor-handler")}
}

func (h *DoctorHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
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

func (h *DoctorHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Analytics(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DoctorHandler) PatientView(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	patientID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	v, err := h.service.PatientView(r.Context(), p.UserID, patientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *DoctorHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	patientID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.NoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	note, err := h.service.AddNote(r.Context(), p.UserID, patientID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *DoctorHandler) AddBiomarkers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	patientID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.BiomarkerInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := h.service.AddEntry(r.Context(), p.UserID, patientID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
