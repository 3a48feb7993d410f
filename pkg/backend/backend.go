package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// IBackend talks to the store backend that mints realtime session tokens
// and carries server-pushed navigation plus conversation logging.
type IBackend interface {
	FetchToken(ctx context.Context) (string, error)
	CheckNavigation(ctx context.Context, sessionID string) (string, bool)
	LogConversation(ctx context.Context, sessionID, role, message string)
}

type backend struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

func New(baseURL string, log *logrus.Logger) IBackend {
	return &backend{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type tokenResponse struct {
	ClientSecret struct {
		Value string `json:"value"`
	} `json:"client_secret"`
}

// FetchToken requests an ephemeral realtime credential. A missing or
// empty secret is fatal for the connect flow, so it surfaces as an error.
func (b *backend) FetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/realtime/token", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.ClientSecret.Value == "" {
		return "", fmt.Errorf("token endpoint returned empty client secret")
	}

	return tr.ClientSecret.Value, nil
}

type navigationResponse struct {
	HasNavigation bool   `json:"has_navigation"`
	Page          string `json:"page"`
}

// CheckNavigation polls for a server-pushed navigation target. Failures
// are logged and swallowed; the poll runs every second and the next tick
// gets another chance.
func (b *backend) CheckNavigation(ctx context.Context, sessionID string) (string, bool) {
	url := fmt.Sprintf("%s/v1/navigation/check/%s", b.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Debug("[Backend.CheckNavigation] poll failed")
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var nr navigationResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		b.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Debug("[Backend.CheckNavigation] bad response body")
		return "", false
	}

	if !nr.HasNavigation || nr.Page == "" {
		return "", false
	}
	return nr.Page, true
}

type conversationLogRequest struct {
	Message   string `json:"message"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

// LogConversation ships a finished transcript line to the backend.
// Fire and forget; a lost log line never disturbs the call.
func (b *backend) LogConversation(ctx context.Context, sessionID, role, message string) {
	payload, err := json.Marshal(conversationLogRequest{
		Message:   message,
		Role:      role,
		SessionID: sessionID,
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/conversation/log", bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Debug("[Backend.LogConversation] log request failed")
		return
	}
	resp.Body.Close()
}
