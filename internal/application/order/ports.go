package order

// IDGenerator mints row ids for orders and their items.
type IDGenerator interface {
	NewID() string
}

// NumberGenerator mints the customer-facing order number.
type NumberGenerator interface {
	NewOrderNumber() string
}
