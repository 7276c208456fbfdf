package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

const userLocalKey = "user"

// RequireSession rejects requests without a valid bearer session and stores
// the session's user in the request locals.
func RequireSession(deps *Dependencies) fiber.Handler {
	return requireSession(deps, false)
}

// RequireSocketSession is RequireSession for the WebSocket upgrade, where
// browsers cannot set headers and the token may come as ?token=.
func RequireSocketSession(deps *Dependencies) fiber.Handler {
	return requireSession(deps, true)
}

func requireSession(deps *Dependencies, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			return errUnauthorized(c, "missing bearer token")
		}
		user, err := deps.Auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return errFrom(c, err)
		}
		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// currentUser returns the user set by RequireSession.
func currentUser(c *fiber.Ctx) *domain.UserProfile {
	u, _ := c.Locals(userLocalKey).(*domain.UserProfile)
	return u
}
