package callService

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"SalmaVoice/internal/api/call"
	navigationService "SalmaVoice/internal/api/navigation/service"
	orderService "SalmaVoice/internal/api/order/service"
	"SalmaVoice/internal/entity"
	"SalmaVoice/pkg/backend"
	"SalmaVoice/pkg/capture"
	"SalmaVoice/pkg/realtime"
	"SalmaVoice/pkg/utils"
)

// ICallService runs the realtime voice call: connection lifecycle, the
// server event stream, command extraction and the fan-out to attached
// websocket clients.
type ICallService interface {
	Connect(ctx context.Context) (*call.ConnectResponse, error)
	Disconnect(ctx context.Context) error
	State(ctx context.Context) call.StateResponse

	Subscribe() (<-chan call.StreamEvent, func())
}

// Config carries the tunables of the session loop. Zero values fall back
// to the production defaults.
type Config struct {
	PollInterval  time.Duration
	MeterInterval time.Duration
}

func (c *Config) fill() {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MeterInterval <= 0 {
		c.MeterInterval = 120 * time.Millisecond
	}
}

type callService struct {
	log     *logrus.Logger
	cfg     Config
	backend backend.IBackend
	orders  orderService.IOrderService
	nav     navigationService.INavigationService
	utils   utils.IUtils
	gate    capture.IGate

	// newTransport builds a fresh transport per call attempt.
	newTransport func() realtime.ITransport

	mu        sync.Mutex
	session   *entity.CallSession
	transport realtime.ITransport
	messages  []entity.ChatMessage
	levels    entity.AudioLevels
	lastCliq  *entity.CliqTransfer
	cancelRun context.CancelFunc

	demux *demultiplexer
	meter *meter

	subMu sync.Mutex
	subs  map[chan call.StreamEvent]struct{}
}

func New(
	log *logrus.Logger,
	cfg Config,
	be backend.IBackend,
	orders orderService.IOrderService,
	nav navigationService.INavigationService,
	u utils.IUtils,
	gate capture.IGate,
	newTransport func() realtime.ITransport,
) ICallService {
	cfg.fill()
	return &callService{
		log:          log,
		cfg:          cfg,
		backend:      be,
		orders:       orders,
		nav:          nav,
		utils:        u,
		gate:         gate,
		newTransport: newTransport,
		demux:        newDemultiplexer(log),
		meter:        newMeter(),
		subs:         make(map[chan call.StreamEvent]struct{}),
	}
}
