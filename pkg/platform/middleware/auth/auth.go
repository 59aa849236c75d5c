// Package auth resolves bearer tokens into tenant admin actors.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"phishsim/pkg/requestcontext"
)

// ActorResolver maps an opaque bearer token to the admin it was issued to.
type ActorResolver interface {
	ResolveActor(ctx context.Context, token string) (requestcontext.ActorInfo, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireActor rejects requests without a valid bearer token and stores the
// resolved actor in the request context.
func RequireActor(resolver ActorResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			actor, err := resolver.ResolveActor(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}

// RequireRole allows the request through only when the actor holds one of roles.
// It must run after RequireActor.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actor, ok := requestcontext.Actor(ctx)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing actor")
				return
			}
			if !slices.Contains(roles, actor.Role) {
				logger.WarnContext(ctx, "forbidden - role not permitted",
					"role", actor.Role,
					"admin_id", actor.AdminID.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Role not permitted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
