package navigationService

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// INavigationService is the single navigation slot. Only one screen
// change can be in flight at a time; anything arriving inside the guard
// window is dropped, never queued.
type INavigationService interface {
	Dispatch(page string) bool
	InProgress() bool
	Current() (string, bool)
	Reset()

	SavePending(page string)
	ConsumePending() (string, bool)
	StashCurrent()
}

type navigationService struct {
	log *logrus.Logger

	guardWindow time.Duration

	mu         sync.Mutex
	guardUntil time.Time
	current    string
	pending    string
	hasPending bool

	now func() time.Time
}

func New(log *logrus.Logger, guardWindow time.Duration) INavigationService {
	if guardWindow <= 0 {
		guardWindow = 2 * time.Second
	}
	return &navigationService{
		log:         log,
		guardWindow: guardWindow,
		now:         time.Now,
	}
}
