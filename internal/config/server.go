package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	callHandler "SalmaVoice/internal/api/call/handler"
	callService "SalmaVoice/internal/api/call/service"
	navigationService "SalmaVoice/internal/api/navigation/service"
	orderHandler "SalmaVoice/internal/api/order/handler"
	orderService "SalmaVoice/internal/api/order/service"
	"SalmaVoice/internal/middleware"
	"SalmaVoice/pkg/backend"
	"SalmaVoice/pkg/capture"
	"SalmaVoice/pkg/realtime"
	"SalmaVoice/pkg/utils"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	utils      utils.IUtils
	backend    backend.IBackend
	handlers   []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBackend() ServerOption {
	return func(s *Server) error {
		baseURL := os.Getenv("BACKEND_URL")
		if baseURL == "" {
			return fmt.Errorf("BACKEND_URL is required")
		}
		s.backend = backend.New(baseURL, s.log)
		return nil
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func (s *Server) RegisterHandler() {
	// Order domain
	orderServices := orderService.New(s.log, s.utils)
	orderHandlers := orderHandler.New(s.log, s.validator, s.middleware, orderServices)

	// Navigation dispatcher
	navServices := navigationService.New(s.log, envDuration("NAVIGATION_GUARD_WINDOW", 2*time.Second))

	// Call domain
	newTransport := func() realtime.ITransport {
		return realtime.New(realtime.Config{
			SDPURL:        os.Getenv("REALTIME_URL"),
			EventsURL:     os.Getenv("REALTIME_EVENTS_URL"),
			GatherTimeout: envDuration("ICE_GATHER_TIMEOUT", 8*time.Second),
		}, s.log)
	}
	callServices := callService.New(
		s.log,
		callService.Config{
			PollInterval: envDuration("NAVIGATION_POLL_INTERVAL", time.Second),
		},
		s.backend,
		orderServices,
		navServices,
		s.utils,
		capture.New(s.log),
		newTransport,
	)
	callHandlers := callHandler.New(s.log, s.validator, s.middleware, callServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, callHandlers, orderHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
