package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"go.uber.org/zap"
)

// AuthService описывает, что нам нужно от сервиса аутентификации
type AuthService interface {
	LoginPatient(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error)
	LoginDoctor(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.TokenResponse, error)
	Logout(ctx context.Context, sessionID string) error
	ChangePassword(ctx context.Context, patientID int64, req domain.PasswordChange) error
}

type AuthHandler struct {
	service AuthService
	cookie  infra.AuthConfig
	logger  *zap.Logger
}

func NewAuthHandler(s AuthService, cfg infra.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, cookie: cfg, logger: logger.Named("auth-handler")}
}

func (h *AuthHandler) PatientLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.service.LoginPatient)
}

func (h *AuthHandler) DoctorLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.service.LoginDoctor)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.LoginRequest) (*domain.TokenResponse, error)) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := fn(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setCookie(w, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setCookie(w, resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.service.Logout(r.Context(), p.SessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Затираем cookie на клиенте
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req domain.PasswordChange
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), p.UserID, req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, resp *domain.TokenResponse) {
	if h.cookie.CookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    resp.AccessToken,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
