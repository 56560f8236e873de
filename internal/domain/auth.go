package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role — тип учетной записи портала
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

type CustomClaims struct {
	UserID    int64  `json:"user_id"`
	Role      Role   `json:"role"`
	SessionID string `json:"sid"` // Ключ сессии в Redis, без него токен не принимается
	jwt.RegisteredClaims
}

// Principal — аутентифицированный пользователь текущего запроса.
// Живет только в context.Context запроса, глобального состояния сессий нет.
type Principal struct {
	UserID    int64  `json:"user_id"`
	Role      Role   `json:"role"`
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validateStruct(r)
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
	Role        Role   `json:"role"`
	Name        string `json:"name"`
}
