package callService

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"SalmaVoice/internal/api/call"
	"SalmaVoice/internal/entity"
	contextPkg "SalmaVoice/pkg/context"
	"SalmaVoice/pkg/realtime"
)

// Connect brings up the realtime call: token, SDP negotiation, event
// stream, then the session loop. Only one call can be live at a time.
func (s *callService) Connect(ctx context.Context) (*call.ConnectResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	s.mu.Lock()
	if s.session != nil && s.session.State == entity.StateConnected {
		s.mu.Unlock()
		return nil, call.ErrAlreadyConnected
	}
	sessionID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		sessionID = time.Now().Format("20060102150405")
	}
	s.session = &entity.CallSession{
		ID:        sessionID,
		State:     entity.StateConnecting,
		StartedAt: time.Now(),
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
	}).Info("[CallService.Connect] starting realtime call")

	if err := s.gate.Request(ctx); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("[CallService.Connect] capture permission denied")
		s.markFailed()
		return nil, call.ErrCaptureDenied
	}

	secret, err := s.backend.FetchToken(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("[CallService.Connect] token fetch failed")
		s.markFailed()
		return nil, call.ErrTokenFetch
	}

	transport := s.newTransport()
	if err := transport.Negotiate(ctx, secret); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("[CallService.Connect] negotiation failed")
		transport.Close()
		s.markFailed()
		return nil, call.ErrNegotiation
	}

	runCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.transport = transport
	s.cancelRun = cancel
	s.session.State = entity.StateConnected
	s.meter.reset()
	s.mu.Unlock()

	go s.run(runCtx, sessionID, transport)

	s.broadcast(call.StreamEvent{Type: "state", State: string(entity.StateConnected)})

	// A navigation saved while no call was live replays on the fresh one.
	if page, ok := s.nav.ConsumePending(); ok {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"page":       page,
		}).Info("[CallService.Connect] replaying pending navigation")
		s.navigate(runCtx, sessionID, page, nil)
	}

	return &call.ConnectResponse{
		SessionID: sessionID,
		State:     string(entity.StateConnected),
	}, nil
}

// Disconnect tears the call down. The order survives so the customer can
// still check out; partial event buffers do not.
func (s *callService) Disconnect(ctx context.Context) error {
	requestID := contextPkg.GetRequestID(ctx)

	s.mu.Lock()
	if s.session == nil || s.session.State == entity.StateDisconnected {
		s.mu.Unlock()
		return call.ErrNotConnected
	}
	cancel := s.cancelRun
	transport := s.transport
	s.cancelRun = nil
	s.transport = nil
	s.session.State = entity.StateDisconnected
	s.levels = entity.AudioLevels{}
	s.lastCliq = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if transport != nil {
		transport.Close()
	}

	s.demux.Reset()
	s.nav.StashCurrent()
	s.nav.Reset()

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
	}).Info("[CallService.Disconnect] call ended")

	s.broadcast(call.StreamEvent{Type: "state", State: string(entity.StateDisconnected)})
	return nil
}

func (s *callService) State(ctx context.Context) call.StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := call.StateResponse{
		State:                string(entity.StateDisconnected),
		Levels:               s.levels,
		NavigationInProgress: s.nav.InProgress(),
		Messages:             append([]entity.ChatMessage(nil), s.messages...),
	}
	if s.session != nil {
		resp.State = string(s.session.State)
		resp.SessionID = s.session.ID
	}
	if page, ok := s.nav.Current(); ok {
		resp.NavigationTarget = page
		resp.Cliq = s.lastCliq
	}
	return resp
}

func (s *callService) markFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.State = entity.StateFailed
	}
}

// run is the session loop. It owns every state mutation driven by the
// server: events, the navigation poll and the audio meter all land here.
func (s *callService) run(ctx context.Context, sessionID string, transport realtime.ITransport) {
	pollTicker := time.NewTicker(s.cfg.PollInterval)
	defer pollTicker.Stop()
	meterTicker := time.NewTicker(s.cfg.MeterInterval)
	defer meterTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case raw, ok := <-transport.Events():
			if !ok {
				s.log.WithFields(logrus.Fields{
					"session_id": sessionID,
				}).Warn("[CallService.run] event stream closed")
				s.mu.Lock()
				if s.session != nil && s.session.ID == sessionID {
					s.session.State = entity.StateDisconnected
				}
				s.mu.Unlock()
				s.broadcast(call.StreamEvent{Type: "state", State: string(entity.StateDisconnected)})
				return
			}
			s.handleServerEvent(ctx, sessionID, raw)

		case <-pollTicker.C:
			if page, ok := s.backend.CheckNavigation(ctx, sessionID); ok {
				s.navigate(ctx, sessionID, page, nil)
			}

		case <-meterTicker.C:
			in, out := transport.Stats()
			levels := s.meter.sample(in, out)

			s.mu.Lock()
			changed := levels != s.levels
			s.levels = levels
			s.mu.Unlock()

			if changed {
				l := levels
				s.broadcast(call.StreamEvent{Type: "levels", Levels: &l})
			}
		}
	}
}

// Subscribe attaches a websocket client to the event fan-out. The
// returned cancel detaches it; a saved navigation replays to the first
// subscriber that shows up.
func (s *callService) Subscribe() (<-chan call.StreamEvent, func()) {
	ch := make(chan call.StreamEvent, 16)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	if page, ok := s.nav.ConsumePending(); ok {
		if s.nav.Dispatch(page) {
			cliq := cliqPayload(page, entity.Command{})
			s.mu.Lock()
			s.lastCliq = cliq
			s.mu.Unlock()
			ch <- call.StreamEvent{Type: "navigation", Page: page, Cliq: cliq}
		}
	}

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *callService) subscriberCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// broadcast pushes an event to every subscriber, dropping frames for
// slow consumers rather than stalling the session loop.
func (s *callService) broadcast(ev call.StreamEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
