package realtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ITransport is the media-plus-events leg of a realtime call. Negotiate
// performs the SDP exchange and opens the events channel; afterwards
// Events delivers raw server events until Close.
type ITransport interface {
	Negotiate(ctx context.Context, clientSecret string) error
	Events() <-chan []byte
	Send(payload []byte) error
	Stats() (inbound uint64, outbound uint64)
	Close() error
}

type Config struct {
	// SDPURL receives the offer as application/sdp.
	SDPURL string
	// EventsURL is the websocket endpoint for the event stream.
	EventsURL string
	// GatherTimeout bounds candidate gathering before the offer is sent.
	GatherTimeout time.Duration
}

type transport struct {
	cfg        Config
	httpClient *http.Client
	log        *logrus.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	events   chan []byte
	closed   chan struct{}
	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64

	pingInterval time.Duration
	writeTimeout time.Duration
}

func New(cfg Config, log *logrus.Logger) ITransport {
	if cfg.GatherTimeout <= 0 {
		cfg.GatherTimeout = 8 * time.Second
	}
	return &transport{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log:          log,
		events:       make(chan []byte, 64),
		closed:       make(chan struct{}),
		pingInterval: 30 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

func (t *transport) Negotiate(ctx context.Context, clientSecret string) error {
	gatherCtx, cancel := context.WithTimeout(ctx, t.cfg.GatherTimeout)
	cands := gatherCandidates(gatherCtx)
	cancel()

	offer := buildOffer(cands)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.SDPURL, strings.NewReader(offer))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+clientSecret)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sdp exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sdp endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sdp answer: %w", err)
	}
	if err := validateAnswer(string(answer)); err != nil {
		return err
	}

	if t.cfg.EventsURL != "" {
		if err := t.dialEvents(clientSecret); err != nil {
			return err
		}
	}

	t.log.WithFields(logrus.Fields{
		"candidates": len(cands),
	}).Info("[Transport.Negotiate] realtime session negotiated")

	return nil
}

func (t *transport) dialEvents(clientSecret string) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+clientSecret)

	conn, _, err := dialer.Dial(t.cfg.EventsURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect event stream: %w", err)
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(t.writeTimeout))
	})

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	go t.readPump(conn)
	go t.keepAlive(conn)

	return nil
}

func (t *transport) readPump(conn *websocket.Conn) {
	defer close(t.events)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-t.closed:
			default:
				t.log.WithFields(logrus.Fields{
					"error": err.Error(),
				}).Warn("[Transport.readPump] event stream closed")
			}
			return
		}

		t.bytesIn.Add(uint64(len(message)))

		select {
		case t.events <- message:
		case <-t.closed:
			return
		}
	}
}

func (t *transport) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(t.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.closed:
			return
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(t.writeTimeout))
			if err != nil {
				return
			}
		}
	}
}

func (t *transport) Events() <-chan []byte {
	return t.events
}

func (t *transport) Send(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn := t.conn
	if conn == nil {
		return fmt.Errorf("event stream not connected")
	}

	conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("error sending event: %w", err)
	}

	t.bytesOut.Add(uint64(len(payload)))
	return nil
}

// Stats reports cumulative event-stream traffic. The session meter samples
// these counters to derive voice activity levels.
func (t *transport) Stats() (uint64, uint64) {
	return t.bytesIn.Load(), t.bytesOut.Load()
}

func (t *transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.closed:
		return nil
	default:
		close(t.closed)
	}

	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	return nil
}
