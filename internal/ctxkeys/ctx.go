package ctxkeys

import (
	"context"

	"github.com/templui/portfolio/internal/config"
	"github.com/templui/portfolio/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	ClaimsKey contextKey = "claims"
	ConfigKey contextKey = "config"
)

// Claims returns the verified access-token claims, or nil on public routes.
func Claims(ctx context.Context) *model.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*model.Claims)
	return claims
}

func WithClaims(ctx context.Context, claims *model.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// UserID is the authenticated caller's id, zero when unauthenticated.
func UserID(ctx context.Context) model.ID {
	claims := Claims(ctx)
	if claims == nil {
		return 0
	}
	return claims.UserID
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}
