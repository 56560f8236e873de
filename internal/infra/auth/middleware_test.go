package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"go.uber.org/zap"
)

type fakeSessions struct {
	principals map[string]*domain.Principal
	err        error
}

func (f *fakeSessions) Touch(_ context.Context, sid string) (*domain.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.principals[sid]
	if !ok {
		return nil, domain.ErrSessionExpired
	}
	return p, nil
}

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims domain.CustomClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func claimsFor(userID int64, role domain.Role, sid string, ttl time.Duration) domain.CustomClaims {
	now := time.Now()
	return domain.CustomClaims{
		UserID:    userID,
		Role:      role,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func TestVerifyToken(t *testing.T) {
	key := newKey(t)
	v := NewBaseValidator(&key.PublicKey)

	t.Run("valid", func(t *testing.T) {
		tok := signToken(t, key, claimsFor(7, domain.RolePatient, "s1", time.Minute))
		claims, err := v.VerifyToken(tok)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
		assert.Equal(t, "s1", claims.SessionID)
	})

	t.Run("expired", func(t *testing.T) {
		tok := signToken(t, key, claimsFor(7, domain.RolePatient, "s1", -time.Minute))
		_, err := v.VerifyToken(tok)
		assert.Error(t, err)
	})

	t.Run("missing session id", func(t *testing.T) {
		tok := signToken(t, key, claimsFor(7, domain.RolePatient, "", time.Minute))
		_, err := v.VerifyToken(tok)
		assert.Error(t, err)
	})

	t.Run("foreign key", func(t *testing.T) {
		tok := signToken(t, newKey(t), claimsFor(7, domain.RolePatient, "s1", time.Minute))
		_, err := v.VerifyToken(tok)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := claimsFor(7, domain.RolePatient, "s1", time.Minute)
		c.Issuer = "someone-else"
		_, err := v.VerifyToken(signToken(t, key, c))
		assert.Error(t, err)
	})
}

func TestMiddleware(t *testing.T) {
	key := newKey(t)
	v := NewBaseValidator(&key.PublicKey)
	sessions := &fakeSessions{principals: map[string]*domain.Principal{
		"alive": {UserID: 7, Role: domain.RolePatient, Name: "Anna", SessionID: "alive"},
	}}

	var got *domain.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := NewMiddleware(v, sessions, "ovcare_session", zap.NewNop())(next)

	serve := func(req *http.Request) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusUnauthorized, serve(req))
	})

	t.Run("bearer header", func(t *testing.T) {
		got = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, key, claimsFor(7, domain.RolePatient, "alive", time.Minute)))
		require.Equal(t, http.StatusOK, serve(req))
		require.NotNil(t, got)
		assert.Equal(t, "Anna", got.Name)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "ovcare_session", Value: signToken(t, key, claimsFor(7, domain.RolePatient, "alive", time.Minute))})
		assert.Equal(t, http.StatusOK, serve(req))
	})

	t.Run("session gone after logout", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", signToken(t, key, claimsFor(7, domain.RolePatient, "dead", time.Minute)))
		assert.Equal(t, http.StatusUnauthorized, serve(req))
	})

	t.Run("token for another user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", signToken(t, key, claimsFor(8, domain.RolePatient, "alive", time.Minute)))
		assert.Equal(t, http.StatusUnauthorized, serve(req))
	})

	t.Run("session store down", func(t *testing.T) {
		down := NewMiddleware(v, &fakeSessions{err: errors.New("redis: connection refused")}, "ovcare_session", zap.NewNop())(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", signToken(t, key, claimsFor(7, domain.RolePatient, "alive", time.Minute)))
		rec := httptest.NewRecorder()
		down.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

// recordingValidator запоминает строку, которую middleware отдал на проверку
type recordingValidator struct {
	seen []string
}

func (v *recordingValidator) VerifyToken(tok string) (*domain.CustomClaims, error) {
	v.seen = append(v.seen, tok)
	if tok != "opaque" {
		return nil, errors.New("invalid token")
	}
	return &domain.CustomClaims{UserID: 7, Role: domain.RolePatient, SessionID: "alive"}, nil
}

func TestMiddleware_StripsBearerPrefix(t *testing.T) {
	v := &recordingValidator{}
	sessions := &fakeSessions{principals: map[string]*domain.Principal{
		"alive": {UserID: 7, Role: domain.RolePatient, SessionID: "alive"},
	}}
	h := NewMiddleware(v, sessions, "ovcare_session", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"Bearer opaque", "opaque", "Bearer  opaque "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, header)
	}
	assert.Equal(t, []string{"opaque", "opaque", "opaque"}, v.seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(domain.RoleDoctor)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name string
		p    *domain.Principal
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"patient", &domain.Principal{UserID: 1, Role: domain.RolePatient}, http.StatusForbidden},
		{"doctor", &domain.Principal{UserID: 2, Role: domain.RoleDoctor}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.p != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tc.p))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
