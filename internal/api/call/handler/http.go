package callHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	callService "SalmaVoice/internal/api/call/service"
	"SalmaVoice/internal/middleware"
)

type CallHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	callService callService.ICallService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	cs callService.ICallService,
) *CallHandler {
	return &CallHandler{
		log:         log,
		validator:   validate,
		middleware:  middleware,
		callService: cs,
	}
}

func (h *CallHandler) Start(srv fiber.Router) {
	call := srv.Group("/call")

	call.Use(h.middleware.NewRateLimiter)

	call.Post("/connect", h.Connect)
	call.Post("/disconnect", h.Disconnect)
	call.Get("/state", h.GetState)

	call.Use("/stream", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	call.Get("/stream", websocket.New(h.Stream))
}
