package call

import "SalmaVoice/internal/entity"

type ConnectResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

type StateResponse struct {
	State                string               `json:"state"`
	SessionID            string               `json:"session_id,omitempty"`
	Levels               entity.AudioLevels   `json:"levels"`
	NavigationInProgress bool                 `json:"navigation_in_progress"`
	NavigationTarget     string               `json:"navigation_target,omitempty"`
	Cliq                 *entity.CliqTransfer `json:"cliq,omitempty"`
	Messages             []entity.ChatMessage `json:"messages"`
}

// StreamEvent is one frame pushed over the client websocket.
type StreamEvent struct {
	Type    string                `json:"type"`
	Page    string                `json:"page,omitempty"`
	Cliq    *entity.CliqTransfer  `json:"cliq,omitempty"`
	Message *entity.ChatMessage   `json:"message,omitempty"`
	Levels  *entity.AudioLevels   `json:"levels,omitempty"`
	State   string                `json:"state,omitempty"`
}
