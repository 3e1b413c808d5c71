package realtime

import "context"

// Event is any domain change notification with a name identifier.
type Event interface {
	EventName() string
}

// Owned is implemented by events scoped to a single cart/order owner.
type Owned interface {
	OwnerKey() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher pushes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscription is a live registration that can be torn down.
type Subscription interface {
	Unsubscribe()
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler) Subscription
}

// FilterOwner wraps a handler so it only sees events owned by key. Events that
// carry no owner are dropped; admin subscribers register the handler directly
// instead.
func FilterOwner(key string, h Handler) Handler {
	return func(ctx context.Context, e Event) error {
		owned, ok := e.(Owned)
		if !ok || owned.OwnerKey() != key {
			return nil
		}
		return h(ctx, e)
	}
}
