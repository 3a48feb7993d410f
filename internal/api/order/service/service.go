package orderService

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"SalmaVoice/internal/entity"
	"SalmaVoice/pkg/utils"
)

// IOrderService owns the live order. Voice commands mutate it through
// ApplyAdd and ApplyBatch; the HTTP surface reads it and adjusts
// quantities.
type IOrderService interface {
	ApplyAdd(ctx context.Context, cmd entity.Command) bool
	ApplyBatch(ctx context.Context, cmd entity.Command) bool

	Increment(ctx context.Context, itemID string) (entity.OrderItem, error)
	Decrement(ctx context.Context, itemID string) (*entity.OrderItem, error)

	Items(ctx context.Context) []entity.OrderItem
	Total(ctx context.Context) decimal.Decimal

	// CheckoutReady reports whether the last applied batch requested
	// checkout. The flag stays armed until a guarded-off batch or an
	// explicit Clear disarms it.
	CheckoutReady() bool

	Clear(ctx context.Context)
}

type orderService struct {
	log   *logrus.Logger
	utils utils.IUtils

	mu            sync.Mutex
	items         []entity.OrderItem
	checkoutReady bool
}

func New(log *logrus.Logger, utils utils.IUtils) IOrderService {
	return &orderService{
		log:   log,
		utils: utils,
	}
}
