package api

import (
	"errors"
	"time"

	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	log           *utils.Logger
}

// NewAPIServer creates the fiber engine. bodyLimitMB bounds request bodies,
// uploads included.
func NewAPIServer(listenAddress string, bodyLimitMB int, log *utils.Logger) *APIServer {
	app := fiber.New(fiber.Config{
		AppName:      "CampusConnect API",
		BodyLimit:    (bodyLimitMB + 1) * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: errorHandler(log),
	})
	return &APIServer{
		app:           app,
		listenAddress: listenAddress,
		log:           log,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run blocks until the listener stops
func (s *APIServer) Run() error {
	s.log.Info("starting API server", "address", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits up to timeout for open ones
func (s *APIServer) Shutdown(timeout time.Duration) error {
	s.log.Info("shutting down API server")
	return s.app.ShutdownWithTimeout(timeout)
}

// errorHandler renders errors that escape a handler in the response envelope
func errorHandler(log *utils.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			switch fiberErr.Code {
			case fiber.StatusNotFound:
				return response.NotFound(c, fiberErr.Message)
			case fiber.StatusMethodNotAllowed:
				return response.Error(c, fiberErr.Code, fiberErr.Message, "METHOD_NOT_ALLOWED")
			case fiber.StatusRequestEntityTooLarge:
				return response.Error(c, fiberErr.Code, "Request body too large", "PAYLOAD_TOO_LARGE")
			default:
				return response.Error(c, fiberErr.Code, fiberErr.Message, "ERROR")
			}
		}
		log.Error("unhandled request error", "path", c.Path(), "error", err)
		return response.InternalServerError(c, "")
	}
}
