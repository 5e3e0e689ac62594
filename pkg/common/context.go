package common

import (
	"context"
	"net"
	"net/http"

	"musicstore/pkg/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// WithClaims stores the authenticated caller on ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom returns the authenticated caller, if any.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// ClientIP returns the host part of r.RemoteAddr. chi's RealIP middleware
// has already replaced it with the forwarded address when one was sent.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
