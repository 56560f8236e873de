package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
)

// RedisStore хранит сессии в Redis. TTL ключа = таймаут бездействия,
// каждый запрос продлевает его (скользящее окно).
type RedisStore struct {
	rdb     redis.Cmdable
	timeout time.Duration
}

func NewRedisStore(rdb redis.Cmdable, idleTimeout time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, timeout: idleTimeout}
}

// Create открывает сессию и возвращает ее ID (он же jti/sid в токене)
func (s *RedisStore) Create(ctx context.Context, p domain.Principal) (string, error) {
	p.SessionID = uuid.NewString()

	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, infra.SessionKey(p.SessionID), data, s.timeout).Err(); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return p.SessionID, nil
}

// Touch возвращает пользователя сессии и продлевает ее.
// Отсутствующий ключ — сессия истекла или был logout.
func (s *RedisStore) Touch(ctx context.Context, sessionID string) (*domain.Principal, error) {
	key := infra.SessionKey(sessionID)

	// GETEX: чтение и продление одной командой
	data, err := s.rdb.GetEx(ctx, key, s.timeout).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("session: touch: %w", err)
	}

	var p domain.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("session: corrupted payload: %w", err)
	}
	return &p, nil
}

// Delete — logout
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, infra.SessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
