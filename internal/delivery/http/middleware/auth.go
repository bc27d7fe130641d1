package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "bloodbank/internal/delivery/http/helpers"
	"bloodbank/internal/domain"
)

type contextKey string

const (
	employeeIDKey contextKey = "employeeID"
	isAdminKey    contextKey = "isAdmin"
	rawTokenKey   contextKey = "rawToken"
)

// SetEmployee returns a context with the authenticated employee's id and
// admin flag set. Used by auth middleware.
func SetEmployee(ctx context.Context, employeeID string, isAdmin bool) context.Context {
	ctx = context.WithValue(ctx, employeeIDKey, employeeID)
	return context.WithValue(ctx, isAdminKey, isAdmin)
}

// EmployeeIDFromContext returns the authenticated employee id, if present.
func EmployeeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(employeeIDKey).(string)
	return id, ok
}

// IsAdminFromContext reports whether the authenticated employee is an admin.
func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(isAdminKey).(bool)
	return isAdmin
}

// SetRawToken returns a context carrying the bearer token string, so logout
// can revoke the exact token that authenticated the request.
func SetRawToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, rawTokenKey, token)
}

// RawTokenFromContext returns the bearer token the request authenticated with.
func RawTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(rawTokenKey).(string)
	return token, ok
}

// RequireAuth returns a wrapper that validates the Bearer token, rejects
// blacklisted (logged-out) tokens, and sets the employee identity in the
// request context. If the token is missing, invalid, or revoked, it responds
// with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, blacklist domain.TokenBlacklist, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			revoked, err := blacklist.IsRevoked(r.Context(), claims.JTI)
			if err != nil {
				logger.ErrorContext(r.Context(), "blacklist check failed", "err", err)
				h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "failed to verify token")
				return
			}
			if revoked {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "token has been revoked")
				return
			}
			ctx := SetEmployee(r.Context(), claims.EmployeeID, claims.IsAdmin)
			ctx = SetRawToken(ctx, token)
			next(w, r.WithContext(ctx))
		}
	}
}
