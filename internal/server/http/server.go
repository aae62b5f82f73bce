// Package http is the server's public HTTP surface: a fiber app exposing the
// JSON sync API under /api.
package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dkrivenko/marksync/internal/logging"
)

type Server struct {
	app  *fiber.App
	addr string
	log  logging.Logger
}

// NewServer builds the fiber app, registers middleware and routes, and binds
// the handlers.
func NewServer(addr string, log logging.Logger, handlers *Handlers, parse TokenParser) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(requestLogger(log))
	app.Use(authMiddleware(parse))

	api := app.Group("/api")
	api.Head("/health", handlers.Health)
	api.Post("/login", handlers.Login)
	api.Post("/submissions", handlers.Submit)
	api.Post("/uploads", handlers.Upload)
	api.Get("/schools", handlers.Schools)
	api.Get("/assessments", handlers.Assessments)
	api.Get("/grading", handlers.Grading)
	api.Post("/grading", handlers.ApplyGrades)

	return &Server{app: app, addr: addr, log: log}
}

// errorHandler renders every error as the {"error": ...} envelope clients
// parse.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info(ctx, "shutting down http server")
		return s.app.Shutdown()
	}
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
