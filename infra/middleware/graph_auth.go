package middleware

import (
	"context"
	"strings"
	"time"

	"graph_server/pkg/apperr"
	"graph_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "graph:token:revoked:"

// TokenRevocations checks token IDs against a Redis set of revoked jti values.
type TokenRevocations struct {
	redis redis.UniversalClient
}

// NewTokenRevocations returns nil for a nil client; a nil list revokes nothing.
func NewTokenRevocations(client redis.UniversalClient) *TokenRevocations {
	if client == nil {
		return nil
	}
	return &TokenRevocations{redis: client}
}

// Revoke marks jti as revoked until expiry.
func (r *TokenRevocations) Revoke(ctx context.Context, jti string, expiry time.Duration) error {
	if r == nil {
		return nil
	}
	return r.redis.Set(ctx, revokedTokenPrefix+jti, "1", expiry).Err()
}

// IsRevoked fails open when Redis cannot be reached.
func (r *TokenRevocations) IsRevoked(ctx context.Context, jti string) bool {
	if r == nil || jti == "" {
		return false
	}
	n, err := r.redis.Exists(ctx, revokedTokenPrefix+jti).Result()
	if err != nil {
		logger.WithError(err).Warn("token revocation lookup failed")
		return false
	}
	return n > 0
}

// JWTAuth validates HS256 bearer tokens signed with secret. The sub claim is
// stored in Locals("subject").
func JWTAuth(secret string, revocations *TokenRevocations) fiber.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(time.Minute),
	)

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			return apperr.Unauthorized("missing bearer token")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			logger.WithError(err).Warn("JWT validation failed")
			return apperr.Unauthorized("invalid token")
		}

		if jti, _ := claims["jti"].(string); revocations.IsRevoked(c.Context(), jti) {
			return apperr.Unauthorized("token has been revoked")
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			return apperr.Unauthorized("missing subject in token")
		}

		c.Locals("subject", sub)
		c.Locals("claims", claims)
		return c.Next()
	}
}
