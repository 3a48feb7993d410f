package navigationService

import (
	"github.com/sirupsen/logrus"
)

// Dispatch claims the navigation slot for page. The slot stays claimed
// for the guard window; dispatches landing inside it are dropped so a
// chatty model cannot bounce the customer between screens.
func (s *navigationService) Dispatch(page string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Before(s.guardUntil) {
		s.log.WithFields(logrus.Fields{
			"page":      page,
			"remaining": s.guardUntil.Sub(now).String(),
		}).Debug("[NavigationService.Dispatch] dropped, navigation in progress")
		return false
	}

	s.guardUntil = now.Add(s.guardWindow)
	s.current = page

	s.log.WithFields(logrus.Fields{
		"page": page,
	}).Info("[NavigationService.Dispatch] navigating")
	return true
}

// StashCurrent parks an in-flight target into the pending slot. Runs on
// disconnect so a navigation the client never acted on replays against
// the next session.
func (s *navigationService) StashCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" && s.now().Before(s.guardUntil) {
		s.pending = s.current
		s.hasPending = true
	}
	s.current = ""
}

func (s *navigationService) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.guardUntil)
}

// Current reports the in-flight target while its guard window is open.
func (s *navigationService) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" || !s.now().Before(s.guardUntil) {
		return "", false
	}
	return s.current, true
}

// Reset releases the slot early. Used when a call tears down so the next
// session never starts guarded.
func (s *navigationService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardUntil = s.now()
	s.current = ""
}

// SavePending stores a navigation target that arrived while no client was
// attached, typically right as a call disconnects.
func (s *navigationService) SavePending(page string) {
	if page == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = page
	s.hasPending = true
}

// ConsumePending hands out the saved target exactly once.
func (s *navigationService) ConsumePending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasPending {
		return "", false
	}
	page := s.pending
	s.pending = ""
	s.hasPending = false
	return page, true
}
