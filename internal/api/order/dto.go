package order

type ItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
	Image    string `json:"image,omitempty"`
	Category string `json:"category,omitempty"`
}

type OrderResponse struct {
	Items         []ItemResponse `json:"items"`
	Total         string         `json:"total"`
	CheckoutReady bool           `json:"checkout_ready"`
}
