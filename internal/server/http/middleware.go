package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dkrivenko/marksync/internal/logging"
	"github.com/dkrivenko/marksync/internal/server/auth"
)

// public paths that skip bearer auth
var skipAuth = map[string]struct{}{
	"/api/login":  {},
	"/api/health": {},
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(log logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info(c.UserContext(), "request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
		)
		return err
	}
}

// TokenParser validates a bearer token and returns the caller's claims.
type TokenParser func(token string) (*auth.Claims, error)

// authMiddleware requires a valid bearer token on every endpoint except the
// public ones and stores the caller's identity in request locals.
func authMiddleware(parse TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := skipAuth[c.Path()]; ok {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := parse(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}
