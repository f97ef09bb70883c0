package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/flashgen/question-service/internal/auth/jwt"
	httperrors "github.com/flashgen/question-service/pkg/http/errors"
)

type claimsKey struct{}

// TokenValidator is satisfied by *jwt.Manager.
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// ClaimsFromContext returns the claims injected by RequireRole.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	return claims, ok && claims != nil
}

// RequireRole validates the bearer token and rejects callers without role.
func RequireRole(validator TokenValidator, role string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Authentication required")
				return
			}

			// Parse "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid authorization header")
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				logger.Warn().Err(err).Msg("token validation failed")
				code := httperrors.ErrCodeInvalidToken
				if errors.Is(err, jwt.ErrExpiredToken) {
					code = httperrors.ErrCodeTokenExpired
				}
				httperrors.RespondUnauthorized(w, code, "Invalid or expired token")
				return
			}

			if claims.Role != role {
				httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Insufficient role")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is RequireRole for the pool-management role.
func RequireAdmin(validator TokenValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return RequireRole(validator, jwt.RoleAdmin, logger)
}
