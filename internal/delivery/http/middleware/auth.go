package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "happymemories/internal/delivery/http/helpers"
	"happymemories/internal/domain"
)

type contextKey string

const actorIDKey contextKey = "actorID"

// WithActorID returns a context carrying the authenticated actor's id.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorIDFromContext returns the authenticated actor id, if present.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorIDKey).(string)
	return id, ok && id != ""
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", "invalid authorization format"
	}
	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", "missing token"
	}
	return token, ""
}

// RequireAuth returns a wrapper that validates the Bearer token and stores the actor id in the
// request context. If the token is missing or invalid it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, problem)
				return
			}
			actorID, err := verifier.Verify(token)
			if err != nil || actorID == "" {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			next(w, r.WithContext(WithActorID(r.Context(), actorID)))
		}
	}
}
