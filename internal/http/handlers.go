package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"trackit/internal/auth"
	"trackit/internal/core"
	"trackit/internal/services"
)

type contextKey string

// sessionContextKey carries the authenticated session through a request.
const sessionContextKey contextKey = "session"

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// requireSession resolves the bearer token to a live session and puts
// it on the request context. Unknown tokens get 401.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			UnauthorizedError("missing session token").Write(w)
			return
		}
		sess, ok := s.sessions.Get(token)
		if !ok {
			UnauthorizedError("unknown session token").Write(w)
			return
		}
		ctx := withSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withSession(ctx context.Context, sess *auth.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// sessionFrom returns the session established by requireSession.
func sessionFrom(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return sess
}

// domainErrorResponse maps service errors to API responses.
func domainErrorResponse(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return UnauthorizedError("invalid email or password")
	case errors.Is(err, core.ErrDuplicateUser):
		return ConflictError("an account with this email already exists")
	case errors.Is(err, services.ErrAdviceInFlight):
		return ConflictError("an advice request is already in progress")
	case errors.Is(err, core.ErrExpenseNotFound),
		errors.Is(err, core.ErrCategoryNotFound),
		errors.Is(err, core.ErrUserNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidBudget),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidEmail):
		return BadRequestError(err.Error())
	default:
		return InternalServerError("internal error")
	}
}
