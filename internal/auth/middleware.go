package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AnonymousActor is recorded when authentication is disabled and no token is sent.
const AnonymousActor = "anonymous"

// Principal represents the authenticated caller.
type Principal struct {
	Actor string
	Role  Role
}

// AuthMiddleware validates bearer tokens and stores the principal.
type AuthMiddleware struct {
	tokens   *TokenManager
	required bool
}

// NewAuthMiddleware constructs middleware. With required false a request
// without a token runs as an anonymous admin, for local development.
func NewAuthMiddleware(tokens *TokenManager, required bool) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, required: required}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if m.required {
			return apperrors.NewUnauthorized("missing authorization header")
		}
		c.Locals(principalKey, &Principal{Actor: AnonymousActor, Role: RoleAdmin})
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	role := claims.Role
	if !role.Valid() {
		role = RoleOperator
	}

	c.Locals(principalKey, &Principal{Actor: claims.Subject, Role: role})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ActorFromContext returns the actor id to record on writes.
func ActorFromContext(c *fiber.Ctx) (string, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal.Actor == "" {
		return "", apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor, nil
}
