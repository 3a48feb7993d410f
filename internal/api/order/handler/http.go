package orderHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	orderService "SalmaVoice/internal/api/order/service"
	"SalmaVoice/internal/middleware"
)

type OrderHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	orderService orderService.IOrderService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	os orderService.IOrderService,
) *OrderHandler {
	return &OrderHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		orderService: os,
	}
}

func (h *OrderHandler) Start(srv fiber.Router) {
	order := srv.Group("/order")

	order.Get("/", h.GetOrder)
	order.Post("/items/:item_id/increment", h.IncrementItem)
	order.Post("/items/:item_id/decrement", h.DecrementItem)
	order.Delete("/", h.ClearOrder)
}
