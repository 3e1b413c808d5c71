package cart

// IDGenerator mints ids for new cart lines.
type IDGenerator interface {
	NewID() string
}
