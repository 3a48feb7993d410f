package orderHandler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"SalmaVoice/internal/api/order"
	"SalmaVoice/internal/entity"
	contextPkg "SalmaVoice/pkg/context"
	"SalmaVoice/pkg/handlerUtil"
	"SalmaVoice/pkg/log"
)

func (h *OrderHandler) GetOrder(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get order request")

	items := h.orderService.Items(c)
	total := h.orderService.Total(c)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, buildOrderResponse(items, total.String(), h.orderService.CheckoutReady()))
	}
}

func (h *OrderHandler) IncrementItem(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	itemID := ctx.Params("item_id")
	if itemID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("item_id is required"), ctx.Path())
	}

	item, err := h.orderService.Increment(c, itemID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "increment_item")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, itemResponse(item))
	}
}

func (h *OrderHandler) DecrementItem(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	itemID := ctx.Params("item_id")
	if itemID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("item_id is required"), ctx.Path())
	}

	item, err := h.orderService.Decrement(c, itemID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "decrement_item")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		if item == nil {
			return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
				"removed": true,
				"item_id": itemID,
			})
		}
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, itemResponse(*item))
	}
}

func (h *OrderHandler) ClearOrder(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing clear order request")

	h.orderService.Clear(c)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Order cleared",
		})
	}
}

func itemResponse(item entity.OrderItem) order.ItemResponse {
	return order.ItemResponse{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.Price.String(),
		Quantity: item.Quantity,
		Total:    item.Total().String(),
		Image:    item.Image,
		Category: item.Category,
	}
}

func buildOrderResponse(items []entity.OrderItem, total string, checkoutReady bool) order.OrderResponse {
	resp := order.OrderResponse{
		Items:         make([]order.ItemResponse, 0, len(items)),
		Total:         total,
		CheckoutReady: checkoutReady,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, itemResponse(item))
	}
	return resp
}
