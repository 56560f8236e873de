package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrForbidden          = errors.New("forbidden")
	ErrSessionExpired     = errors.New("session expired")
	ErrValidation         = errors.New("validation failed")
	ErrModelUnavailable   = errors.New("prediction model unavailable")
)
