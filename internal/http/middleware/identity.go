package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"signdocs/internal/model"
)

// IdentityLocalKey is the key used to store the caller identity in Fiber's context locals.
const IdentityLocalKey = "identity"

// Identity extracts the verified caller tuple from the bearer token.
//
// The identity provider (or the gateway in front of this service) has already
// verified the token's signature; per the trust boundary this core only
// parses the claims and does not re-verify. Requests without a usable
// identity are rejected with 401.
func Identity() fiber.Handler {
	parser := jwt.NewParser()

	return func(c *fiber.Ctx) error {
		raw := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			return fiber.ErrUnauthorized
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return fiber.ErrUnauthorized
		}

		ident := model.Identity{
			UserID:    stringClaim(claims, "sub"),
			Role:      model.Role(stringClaim(claims, "role")),
			CompanyID: stringClaim(claims, "company_id"),
		}
		if ident.UserID == "" || !ident.Role.Known() {
			return fiber.ErrUnauthorized
		}

		c.Locals(IdentityLocalKey, ident)
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by the Identity middleware.
func IdentityFromCtx(c *fiber.Ctx) (model.Identity, bool) {
	ident, ok := c.Locals(IdentityLocalKey).(model.Identity)
	return ident, ok
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
