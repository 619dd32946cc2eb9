package auth

import (
	"context"

	"github.com/CHIDI00/healix/internal/platformauth"
)

// Claims mirrors the shared auth claims type for service convenience.
type Claims = platformauth.Claims

// Config mirrors the shared auth config.
type Config = platformauth.Config

// ParseClaims delegates to the shared auth parser.
func ParseClaims(token string, cfg Config) (*Claims, error) {
	return platformauth.Parse(token, platformauth.Config(cfg))
}

// WithClaims stores the claims in the request context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return platformauth.WithClaims(ctx, claims)
}

// FromContext retrieves claims from context.
func FromContext(ctx context.Context) (*Claims, bool) {
	return platformauth.FromContext(ctx)
}
