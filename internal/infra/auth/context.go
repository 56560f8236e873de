package auth

import (
	"context"

	"github.com/xela07ax/ovcare-portal/internal/domain"
)

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey struct{}

// WithPrincipal кладет пользователя в контекст запроса
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom достает пользователя, положенный middleware
func PrincipalFrom(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*domain.Principal)
	return p, ok && p != nil
}
