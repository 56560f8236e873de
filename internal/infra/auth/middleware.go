package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/xela07ax/ovcare-portal/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — проверка подписи и срока токена
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

// SessionChecker — серверная часть сессии (Redis): отзыв при logout и таймаут бездействия
type SessionChecker interface {
	Touch(ctx context.Context, sessionID string) (*domain.Principal, error)
}

// NewMiddleware принимает токен из Authorization или из cookie,
// проверяет живую сессию и прокидывает Principal в контекст.
func NewMiddleware(v TokenValidator, sessions SessionChecker, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if token == "" {
				if c, err := r.Cookie(cookieName); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(token)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := sessions.Touch(r.Context(), claims.SessionID)
			if err != nil {
				if errors.Is(err, domain.ErrSessionExpired) {
					http.Error(w, "Session expired", http.StatusUnauthorized)
					return
				}
				logger.Error("session lookup failed", zap.Error(err))
				http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
				return
			}

			// Токен и сессия должны описывать одного и того же пользователя
			if principal.UserID != claims.UserID || principal.Role != claims.Role {
				logger.Warn("token does not match session", zap.String("sid", claims.SessionID))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole пропускает только пользователей нужной роли
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if p.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
