package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-likes/internal/identity"
)

const userKey = "user"

// Identity resolves the caller from the session cookie, or from a Bearer
// token for API clients, and stores the result in Locals. Missing or invalid
// credentials resolve to the anonymous user; they never fail the request.
func Identity(signer *identity.Signer, cookieName string) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			if h := c.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}

		user := identity.Anonymous
		if token != "" {
			user = signer.FromToken(token)
		}
		c.Locals(userKey, user)
		return c.Next()
	}
}

// User returns the identity resolved for this request.
func User(c fiber.Ctx) identity.User {
	if u, ok := c.Locals(userKey).(identity.User); ok {
		return u
	}
	return identity.Anonymous
}
