// Package session carries the authenticated principal through the request
// context and gates routes on it.
package session

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"minierp/internal/commons"
	apperrors "minierp/internal/errors"
)

type Principal struct {
	UserID    string
	UserName  string
	Email     string
	FirstName string
	LastName  string
	Roles     []string
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type contextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

type TokenParser interface {
	Parse(token string) (Principal, error)
}

// Authenticate requires a valid "Authorization: Bearer <jwt>" header.
func Authenticate(parser TokenParser, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				traceID, log := commons.TraceLogger(logger)
				commons.WriteAppError(w, log, traceID, apperrors.NewUnauthorizedError("missing or malformed bearer token"))
				return
			}

			principal, err := parser.Parse(strings.TrimSpace(token))
			if err != nil {
				traceID, log := commons.TraceLogger(logger)
				log.Warn("rejected bearer token", zap.Error(err))
				commons.WriteAppError(w, log, traceID, apperrors.NewUnauthorizedError("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRoles lets the request through when the principal holds any of roles.
func RequireRoles(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := FromContext(r.Context())
			if !ok {
				traceID, log := commons.TraceLogger(logger)
				commons.WriteAppError(w, log, traceID, apperrors.NewUnauthorizedError("authentication required"))
				return
			}

			for _, role := range roles {
				if principal.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			traceID, log := commons.TraceLogger(logger)
			log.Warn("role check failed", zap.String("userId", principal.UserID), zap.Strings("required", roles))
			commons.WriteAppError(w, log, traceID, apperrors.NewForbiddenError("insufficient permissions"))
		})
	}
}
