package callService_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"SalmaVoice/internal/api/call"
	callService "SalmaVoice/internal/api/call/service"
	navigationService "SalmaVoice/internal/api/navigation/service"
	orderService "SalmaVoice/internal/api/order/service"
	"SalmaVoice/pkg/capture"
	"SalmaVoice/pkg/realtime"
	"SalmaVoice/pkg/utils"
)

type fakeBackend struct {
	mu     sync.Mutex
	logged []string
}

func (f *fakeBackend) FetchToken(ctx context.Context) (string, error) {
	return "ek_fake", nil
}

func (f *fakeBackend) CheckNavigation(ctx context.Context, sessionID string) (string, bool) {
	return "", false
}

func (f *fakeBackend) LogConversation(ctx context.Context, sessionID, role, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logged = append(f.logged, role+": "+message)
}

func (f *fakeBackend) loggedLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.logged...)
}

type fakeGate struct {
	err error
}

func (f *fakeGate) Request(ctx context.Context) error { return f.err }

type fakeTransport struct {
	events chan []byte
	once   sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan []byte, 16)}
}

func (f *fakeTransport) Negotiate(ctx context.Context, clientSecret string) error { return nil }
func (f *fakeTransport) Events() <-chan []byte                                    { return f.events }
func (f *fakeTransport) Send(payload []byte) error                                { return nil }
func (f *fakeTransport) Stats() (uint64, uint64)                                  { return 0, 0 }
func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.events) })
	return nil
}

type harness struct {
	svc       callService.ICallService
	orders    orderService.IOrderService
	nav       navigationService.INavigationService
	backend   *fakeBackend
	gate      *fakeGate
	transport *fakeTransport
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	be := &fakeBackend{}
	orders := orderService.New(l, utils.New())
	nav := navigationService.New(l, 100*time.Millisecond)

	h := &harness{orders: orders, nav: nav, backend: be, gate: &fakeGate{}, transport: newFakeTransport()}
	h.svc = callService.New(
		l,
		callService.Config{PollInterval: time.Hour, MeterInterval: time.Hour},
		be,
		orders,
		nav,
		utils.New(),
		h.gate,
		func() realtime.ITransport {
			tr := newFakeTransport()
			h.transport = tr
			return tr
		},
	)
	return h
}

func waitEvent(t *testing.T, ch <-chan call.StreamEvent, eventType string) call.StreamEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("stream closed while waiting for %q", eventType)
			}
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", eventType)
		}
	}
}

func transcriptEvent(text string) []byte {
	payload, _ := json.Marshal(map[string]string{
		"type":        "response.audio_transcript.done",
		"response_id": "r1",
		"transcript":  text,
	})
	return payload
}

func TestConnectAndDisconnect(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.svc.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if resp.SessionID == "" || resp.State != "connected" {
		t.Fatalf("resp = %+v", resp)
	}

	if _, err := h.svc.Connect(ctx); err != call.ErrAlreadyConnected {
		t.Fatalf("second connect err = %v, want ErrAlreadyConnected", err)
	}

	if err := h.svc.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := h.svc.Disconnect(ctx); err != call.ErrNotConnected {
		t.Fatalf("second disconnect err = %v, want ErrNotConnected", err)
	}
}

func TestConnectFailsWhenCaptureDenied(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.gate.err = capture.ErrDenied

	if _, err := h.svc.Connect(ctx); err != call.ErrCaptureDenied {
		t.Fatalf("Connect err = %v, want ErrCaptureDenied", err)
	}
	if got := h.svc.State(ctx).State; got != "failed" {
		t.Fatalf("state = %q, want failed", got)
	}

	// A granted gate connects normally afterwards.
	h.gate.err = nil
	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect after grant: %v", err)
	}
}

func TestTranscriptBecomesMessageAndLog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events, cancel := h.svc.Subscribe()
	defer cancel()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	h.transport.events <- transcriptEvent("أهلا وسهلا")

	ev := waitEvent(t, events, "message")
	if ev.Message == nil || ev.Message.Text != "أهلا وسهلا" || ev.Message.IsUser {
		t.Fatalf("message event = %+v", ev)
	}

	state := h.svc.State(ctx)
	if len(state.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(state.Messages))
	}
	if lines := h.backend.loggedLines(); len(lines) != 1 || lines[0] != "assistant: أهلا وسهلا" {
		t.Fatalf("logged = %v", lines)
	}
}

func TestTranscriptCommandsMutateOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events, cancel := h.svc.Subscribe()
	defer cancel()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	text := "تمام\n```json\n" +
		`{"page":"add_product","ready":true,"product_name":"قهوة تركية وسط","category":"Turkish","weight":"1kg","cardamom":"هيل"}` + "\n" +
		`{"page":"add_product","ready":true,"product_name":"إسبرسو","category":"Espresso","weight":"1kg"}` + "\n```"
	h.transport.events <- transcriptEvent(text)

	waitEvent(t, events, "order_updated")
	waitEvent(t, events, "order_updated")

	items := h.orders.Items(ctx)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 (one per fenced object)", len(items))
	}
}

func TestOrderBatchCheckoutNavigatesToCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events, cancel := h.svc.Subscribe()
	defer cancel()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	text := "```json\n" +
		`{"page":"order_batch","checkout":true,"orders":[{"product_name":"إسبرسو","category":"Espresso","weight":"1kg"}]}` + "\n```"
	h.transport.events <- transcriptEvent(text)

	waitEvent(t, events, "order_updated")
	nav := waitEvent(t, events, "navigation")
	if nav.Page != "cart" {
		t.Fatalf("navigation page = %q, want cart", nav.Page)
	}
}

func TestCheckoutStaysReadyAfterBatchPipeline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events, cancel := h.svc.Subscribe()
	defer cancel()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	text := "```json\n" +
		`{"page":"order_batch","checkout":true,"orders":[{"product_name":"إسبرسو","category":"Espresso","weight":"1kg"}]}` + "\n```"
	h.transport.events <- transcriptEvent(text)

	waitEvent(t, events, "order_updated")
	waitEvent(t, events, "navigation")

	// The cart navigation must not eat the flag; REST readers still see
	// the order as checked out.
	if !h.orders.CheckoutReady() {
		t.Fatal("checkout flag must stay armed after an accepted batch")
	}
}

func TestCliqReviewDefaultsAmount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events, cancel := h.svc.Subscribe()
	defer cancel()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	h.transport.events <- transcriptEvent("```json\n" + `{"page":"cliq_review","alias":"سالم"}` + "\n```")

	nav := waitEvent(t, events, "navigation")
	if nav.Page != "cliq_review" || nav.Cliq == nil {
		t.Fatalf("navigation event = %+v", nav)
	}
	if nav.Cliq.Amount != "5.00" || nav.Cliq.Alias != "سالم" {
		t.Fatalf("cliq payload = %+v", nav.Cliq)
	}

	// The target and its payload are also readable through the state
	// snapshot while the navigation is in flight.
	state := h.svc.State(ctx)
	if state.NavigationTarget != "cliq_review" {
		t.Fatalf("state target = %q, want cliq_review", state.NavigationTarget)
	}
	if state.Cliq == nil || state.Cliq.Amount != "5.00" {
		t.Fatalf("state cliq = %+v", state.Cliq)
	}
}

func TestDirectNavigationEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events, cancel := h.svc.Subscribe()
	defer cancel()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	h.transport.events <- []byte(`{"type":"navigation","page":"transfers"}`)

	nav := waitEvent(t, events, "navigation")
	if nav.Page != "transfers" {
		t.Fatalf("navigation page = %q", nav.Page)
	}
}

func TestNavigationSavedWithoutSubscriberReplaysOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// No subscriber attached: the target parks instead of dispatching.
	h.transport.events <- []byte(`{"type":"navigation","page":"orderDetails"}`)

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := h.nav.ConsumePending(); ok {
			h.nav.SavePending("orderDetails")
			break
		}
		select {
		case <-deadline:
			t.Fatal("navigation was never parked")
		case <-time.After(10 * time.Millisecond):
		}
	}

	events, cancel := h.svc.Subscribe()
	defer cancel()

	nav := waitEvent(t, events, "navigation")
	if nav.Page != "orderDetails" {
		t.Fatalf("replayed page = %q", nav.Page)
	}

	// Replay is exactly once.
	events2, cancel2 := h.svc.Subscribe()
	defer cancel2()
	select {
	case ev := <-events2:
		if ev.Type == "navigation" {
			t.Fatalf("second subscriber got a replay: %+v", ev)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestReconnectRestoresInFlightNavigationOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events, cancel := h.svc.Subscribe()
	defer cancel()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	h.transport.events <- []byte(`{"type":"navigation","page":"transfers"}`)
	waitEvent(t, events, "navigation")

	// The guard window is still open, so the target stashes on disconnect.
	if err := h.svc.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}

	nav := waitEvent(t, events, "navigation")
	if nav.Page != "transfers" {
		t.Fatalf("restored page = %q, want transfers", nav.Page)
	}

	// Once the replayed dispatch leaves the guard window, nothing is left
	// to restore again.
	time.Sleep(150 * time.Millisecond)
	if err := h.svc.Disconnect(ctx); err != nil {
		t.Fatalf("second disconnect: %v", err)
	}
	if _, ok := h.nav.ConsumePending(); ok {
		t.Fatal("navigation must restore exactly once")
	}
}

func TestDisconnectKeepsOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events, cancel := h.svc.Subscribe()
	defer cancel()

	if _, err := h.svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	h.transport.events <- transcriptEvent("```json\n" +
		`{"page":"add_product","ready":true,"product_name":"قهوة","category":"Turkish","weight":"1kg"}` + "\n```")
	waitEvent(t, events, "order_updated")

	if err := h.svc.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	if items := h.orders.Items(ctx); len(items) != 1 {
		t.Fatalf("items = %d, the order must survive disconnect", len(items))
	}
	if got := h.svc.State(ctx).State; got != "disconnected" {
		t.Fatalf("state = %q", got)
	}
}
