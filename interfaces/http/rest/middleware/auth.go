package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"musicstore/pkg/auth"
	"musicstore/pkg/common"
	apperrors "musicstore/pkg/errors"
)

// RateLimit rejects clients that exceed their per-IP bucket.
func RateLimit(limiter *auth.KeyedLimiter, errs *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(common.ClientIP(r)) {
				w.Header().Set("Retry-After", "1")
				errs.Handle(w, r, apperrors.NewRateLimitError(limiter.Limit(), "second"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole validates the caller's token and requires one of roles. The
// claims are stored on the request context for the handlers.
func RequireRole(tokens *auth.JWTManager, errs *apperrors.ErrorHandler, logger *zap.Logger, roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errs.Handle(w, r, apperrors.NewUnauthorizedError(auth.ErrMissingToken.Error()))
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", common.ClientIP(r)),
					zap.String("path", r.URL.Path),
				)
				message := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "token has expired"
				}
				errs.Handle(w, r, apperrors.NewUnauthorizedError(message))
				return
			}

			if !hasAnyRole(claims, roles) {
				errs.Handle(w, r, apperrors.NewForbiddenError("insufficient permissions"))
				return
			}

			logger.Debug("Request authenticated",
				zap.String("subject", claims.Subject),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			next.ServeHTTP(w, r.WithContext(common.WithClaims(r.Context(), claims)))
		})
	}
}

func hasAnyRole(claims *auth.Claims, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if claims.HasRole(role) {
			return true
		}
	}
	return false
}

// extractToken reads the bearer token from the Authorization header or the
// auth_token cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return header
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}
