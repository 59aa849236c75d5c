package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "phishsim/pkg/domain"
	"phishsim/pkg/requestcontext"
)

type stubResolver struct {
	tokens map[string]requestcontext.ActorInfo
}

func (s stubResolver) ResolveActor(_ context.Context, token string) (requestcontext.ActorInfo, error) {
	actor, ok := s.tokens[token]
	if !ok {
		return requestcontext.ActorInfo{}, errors.New("unknown token")
	}
	return actor, nil
}

func TestRequireActor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	actor := requestcontext.ActorInfo{AdminID: id.AdminID(uuid.New()), TenantID: id.TenantID(uuid.New()), Role: "owner"}
	resolver := stubResolver{tokens: map[string]requestcontext.ActorInfo{"good-token": actor}}

	var seen requestcontext.ActorInfo
	h := RequireActor(resolver, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestcontext.Actor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, actor, seen)
	})
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequireRole(logger, "owner")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, want := range map[string]int{"owner": http.StatusNoContent, "admin": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/policy-violations/x/review", nil)
		req = req.WithContext(requestcontext.WithActor(req.Context(), requestcontext.ActorInfo{Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}
