package callService

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"SalmaVoice/internal/api/call"
	"SalmaVoice/internal/entity"
	"SalmaVoice/pkg/extract"
)

// defaultCliqAmount is used when a cliq_review command omits the amount.
const defaultCliqAmount = "5.00"

func (s *callService) handleServerEvent(ctx context.Context, sessionID string, raw []byte) {
	result := s.demux.Process(raw)
	if result == nil {
		return
	}

	if result.Page != "" {
		s.navigate(ctx, sessionID, result.Page, nil)
		return
	}

	if result.IsTranscript {
		s.appendMessage(result.Text, false)
		s.backend.LogConversation(ctx, sessionID, "assistant", result.Text)
	}

	for _, cmd := range extract.Commands(result.Text) {
		s.handleCommand(ctx, sessionID, cmd)
	}
}

func (s *callService) appendMessage(text string, isUser bool) {
	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		id = time.Now().Format("20060102150405.000000000")
	}
	msg := entity.ChatMessage{
		ID:        id,
		Text:      text,
		IsUser:    isUser,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.broadcast(call.StreamEvent{Type: "message", Message: &msg})
}

func (s *callService) handleCommand(ctx context.Context, sessionID string, cmd entity.Command) {
	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"page":       cmd.Page,
	}).Debug("[CallService.handleCommand] command extracted")

	if !cmd.IsCartMutation() {
		s.navigate(ctx, sessionID, cmd.Page, &cmd)
		return
	}

	switch cmd.Page {
	case "add_product":
		if s.orders.ApplyAdd(ctx, cmd) {
			s.broadcast(call.StreamEvent{Type: "order_updated"})
		}

	case "order_batch":
		if s.orders.ApplyBatch(ctx, cmd) {
			s.broadcast(call.StreamEvent{Type: "order_updated"})
			if s.orders.CheckoutReady() {
				s.navigate(ctx, sessionID, "cart", &cmd)
			}
		}
	}
}

// navigate pushes a screen change through the single navigation slot.
// With no client attached the target is parked instead, to replay when
// one subscribes.
func (s *callService) navigate(ctx context.Context, sessionID, page string, cmd *entity.Command) {
	if s.subscriberCount() == 0 {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"page":       page,
		}).Info("[CallService.navigate] no client attached, saving navigation")
		s.nav.SavePending(page)
		return
	}

	if !s.nav.Dispatch(page) {
		return
	}

	if cmd == nil {
		cmd = &entity.Command{}
	}
	cliq := cliqPayload(page, *cmd)

	s.mu.Lock()
	s.lastCliq = cliq
	s.mu.Unlock()

	s.broadcast(call.StreamEvent{
		Type: "navigation",
		Page: page,
		Cliq: cliq,
	})
}

// cliqPayload builds the transfer details for the CliQ review screen.
func cliqPayload(page string, cmd entity.Command) *entity.CliqTransfer {
	if page != "cliq_review" {
		return nil
	}
	amount := cmd.Amount
	if amount == "" {
		amount = defaultCliqAmount
	}
	return &entity.CliqTransfer{
		Amount: amount,
		Phone:  cmd.Phone,
		Alias:  cmd.Alias,
	}
}
