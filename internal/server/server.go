// Package server exposes sessions over an HTTP JSON API built on fiber.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/coursealloc/internal/session"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// maxBodyBytes bounds request bodies. A 500 × 100 preference CSV is well
// under this.
const maxBodyBytes = 8 << 20

// Server serves the session API.
type Server struct {
	app *fiber.App
	mgr *session.Manager
	log *zap.Logger
}

// New returns a Server backed by mgr. A nil log discards output.
func New(mgr *session.Manager, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{mgr: mgr, log: log}
	s.app = fiber.New(fiber.Config{
		AppName:               "coursealloc",
		BodyLimit:             maxBodyBytes,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
		// Session IDs from route params are kept as map keys by the manager.
		Immutable: true,
	})
	s.app.Use(recover.New())
	s.app.Use(s.accessLog)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/algorithms", s.listAlgorithms)

	sessions := api.Group("/sessions")
	sessions.Get("/", s.listSessions)
	sessions.Post("/", s.createSession)
	sessions.Get("/:id", s.getSession)
	sessions.Delete("/:id", s.deleteSession)
	sessions.Put("/:id/dimensions", s.setDimensions)
	sessions.Post("/:id/shuffle", s.shuffle)
	sessions.Post("/:id/tables/:table/upload", s.upload)
	sessions.Patch("/:id/tables/:table/cells", s.editCells)
	sessions.Get("/:id/tables/:table/csv", s.downloadCSV)
	sessions.Post("/:id/run", s.run)
	sessions.Get("/:id/runs", s.listRuns)
}

// App returns the fiber application, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status = statusFor(err)
	}
	s.log.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)))
	return err
}

// errorBody is the JSON body of every failed request. Table carries the
// unchanged table after a rejected upload or edit.
type errorBody struct {
	Error string       `json:"error"`
	Table *types.Table `json:"table,omitempty"`
}

// tableError pairs a reconciliation error with the table that is still
// stored.
type tableError struct {
	err   error
	table *types.Table
}

func (e *tableError) Error() string { return e.err.Error() }
func (e *tableError) Unwrap() error { return e.err }

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var te *tableError
	if errors.As(err, &te) {
		body.Table = te.table
	}
	if status >= fiber.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrUnknownTable):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrUnknownAlgorithm):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, types.ErrImport), errors.Is(err, types.ErrCoercion):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
