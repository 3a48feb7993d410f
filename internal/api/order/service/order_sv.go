package orderService

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"SalmaVoice/internal/api/order"
	"SalmaVoice/internal/entity"
	contextPkg "SalmaVoice/pkg/context"
	"SalmaVoice/pkg/extract"
)

// ApplyAdd appends one line item from an add_product command. Commands
// without ready=true are provisional narration and are dropped; the model
// re-emits the command with ready set once the customer confirms.
func (s *orderService) ApplyAdd(ctx context.Context, cmd entity.Command) bool {
	requestID := contextPkg.GetRequestID(ctx)

	if !cmd.Ready {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Debug("[OrderService.ApplyAdd] dropping add_product without ready flag")
		return false
	}

	item := s.buildItem(cmd.Raw)

	s.mu.Lock()
	s.items = append(s.items, item)
	count := len(s.items)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"item":       item.Name,
		"price":      item.Price.String(),
		"quantity":   item.Quantity,
		"items":      count,
	}).Info("[OrderService.ApplyAdd] item added to order")

	return true
}

// ApplyBatch replaces the whole order from an order_batch command. The
// replacement is atomic: either every product in the batch lands or the
// existing order stays untouched. checkout=true arms the checkout flag
// for the navigation side.
func (s *orderService) ApplyBatch(ctx context.Context, cmd entity.Command) bool {
	requestID := contextPkg.GetRequestID(ctx)

	if !cmd.Checkout {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Debug("[OrderService.ApplyBatch] dropping order_batch without checkout flag")
		s.clearCheckout()
		return false
	}
	if len(cmd.Orders) == 0 {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("[OrderService.ApplyBatch] order_batch carries no products")
		s.clearCheckout()
		return false
	}

	replacement := make([]entity.OrderItem, 0, len(cmd.Orders))
	for _, product := range cmd.Orders {
		replacement = append(replacement, s.buildItem(product))
	}

	s.mu.Lock()
	s.items = replacement
	s.checkoutReady = true
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"items":      len(replacement),
	}).Info("[OrderService.ApplyBatch] order replaced from batch")

	return true
}

func (s *orderService) buildItem(payload map[string]interface{}) entity.OrderItem {
	attrs := attributesFromPayload(payload)

	quantity, ok := extract.IntValue(payload, "quantity")
	if !ok || quantity < 1 {
		quantity = 1
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		id = time.Now().Format("20060102150405.000000000")
	}

	return entity.OrderItem{
		ID:       id,
		Name:     displayName(attrs),
		Price:    s.resolvePrice(payload, attrs),
		Quantity: quantity,
		Image:    imageFor(attrs),
		Category: attrs.Category,
	}
}

func (s *orderService) Increment(ctx context.Context, itemID string) (entity.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity++
			return s.items[i], nil
		}
	}
	return entity.OrderItem{}, order.ErrItemNotFound
}

// Decrement lowers an item quantity, removing the line entirely when it
// would drop below one. A nil item in the return means the line is gone.
func (s *orderService) Decrement(ctx context.Context, itemID string) (*entity.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != itemID {
			continue
		}
		if s.items[i].Quantity <= 1 {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil, nil
		}
		s.items[i].Quantity--
		item := s.items[i]
		return &item, nil
	}
	return nil, order.ErrItemNotFound
}

func (s *orderService) Items(ctx context.Context) []entity.OrderItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.OrderItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *orderService) Total(ctx context.Context) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Total())
	}
	return total
}

func (s *orderService) clearCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkoutReady = false
}

func (s *orderService) CheckoutReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutReady
}

func (s *orderService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.checkoutReady = false
}
