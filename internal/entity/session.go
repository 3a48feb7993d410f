package entity

import "time"

type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateFailed       ConnectionState = "failed"
)

// CallSession is the single active realtime call. The correlation map for
// fragment reassembly lives on the session and is cleared on disconnect.
type CallSession struct {
	ID        string
	State     ConnectionState
	StartedAt time.Time
}

type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

// AudioLevels holds the smoothed inbound (model) and outbound (caller)
// voice levels. Display state only, never persisted.
type AudioLevels struct {
	Inbound  float64 `json:"inbound"`
	Outbound float64 `json:"outbound"`
}

// CliqTransfer carries the payload of a cliq_review navigation command.
type CliqTransfer struct {
	Amount string `json:"amount"`
	Phone  string `json:"phone,omitempty"`
	Alias  string `json:"alias,omitempty"`
}
