package order

import "SalmaVoice/pkg/response"

var (
	ErrItemNotFound = response.NewError(404, "order item not found")
)
