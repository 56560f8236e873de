package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"github.com/xela07ax/ovcare-portal/internal/infra/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionStore — серверные сессии (session.RedisStore)
type SessionStore interface {
	Create(ctx context.Context, p domain.Principal) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type AuthService struct {
	repo       AccountStore
	sessions   SessionStore
	privateKey *rsa.PrivateKey
	tokenTTL   time.Duration
	bcryptCost int
	logger     *zap.Logger
}

func NewAuthService(repo AccountStore, sessions SessionStore, privateKey *rsa.PrivateKey, cfg infra.AuthConfig, logger *zap.Logger) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		repo:       repo,
		sessions:   sessions,
		privateKey: privateKey,
		tokenTTL:   ttl,
		bcryptCost: cost,
		logger:     logger.Named("auth"),
	}
}

func (s *AuthService) LoginPatient(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 1. Аутентификация (источник правды — Postgres)
	p, err := s.repo.GetPatientByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Проверка пароля (только bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(ctx, domain.Principal{UserID: p.ID, Role: domain.RolePatient, Name: p.Name})
}

func (s *AuthService) LoginDoctor(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetDoctorByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(ctx, domain.Principal{UserID: d.ID, Role: domain.RoleDoctor, Name: d.Name})
}

// Register создает пациента и сразу выполняет вход
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	p := &domain.Patient{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Age:          req.Age,
		Phone:        req.Phone,
		DateOfBirth:  dob,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreatePatient(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("patient registered", zap.Int64("patient_id", p.ID))
	return s.issue(ctx, domain.Principal{UserID: p.ID, Role: domain.RolePatient, Name: p.Name})
}

// Logout удаляет серверную сессию, после чего токен больше не принимается
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *AuthService) ChangePassword(ctx context.Context, patientID int64, req domain.PasswordChange) error {
	if err := req.Validate(); err != nil {
		return err
	}

	p, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Current)); err != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.New), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePatientPassword(ctx, patientID, string(hash))
}

// issue открывает сессию и подписывает токен ЗАКРЫТЫМ КЛЮЧОМ (RS256)
func (s *AuthService) issue(ctx context.Context, p domain.Principal) (*domain.TokenResponse, error) {
	sid, err := s.sessions.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &domain.CustomClaims{
		UserID:    p.UserID,
		Role:      p.Role,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			Subject:   fmt.Sprintf("%s:%d", p.Role, p.UserID),
			ID:        sid,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		Role:        p.Role,
		Name:        p.Name,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// parseDate разбирает YYYY-MM-DD (формат уже проверен валидатором)
func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: date_of_birth", domain.ErrValidation)
	}
	return &t, nil
}
