package entity

// Command is a structured object the model embedded in free-form text.
// Only objects carrying a "page" key become commands; everything else the
// extractor sees is discarded.
type Command struct {
	Page     string
	Amount   string
	Phone    string
	Alias    string
	Ready    bool
	Checkout bool

	// Orders is the order_batch payload ("orders", falling back to
	// "products"); each entry describes one product.
	Orders []map[string]interface{}

	// Raw keeps the full decoded object for product attribute resolution.
	Raw map[string]interface{}
}

// IsCartMutation reports whether the command mutates the order instead of
// navigating directly. Cart mutations only ever open a screen through the
// explicit checkout affordance.
func (c Command) IsCartMutation() bool {
	return c.Page == "add_product" || c.Page == "order_batch"
}
