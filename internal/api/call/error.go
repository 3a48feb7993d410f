package call

import "SalmaVoice/pkg/response"

var (
	ErrCaptureDenied    = response.NewError(403, "audio capture permission denied")
	ErrAlreadyConnected = response.NewError(409, "call already connected")
	ErrNotConnected     = response.NewError(409, "no active call")
	ErrTokenFetch       = response.NewError(502, "failed to fetch realtime token")
	ErrNegotiation      = response.NewError(502, "failed to negotiate realtime session")
)
