package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domrealtime "github.com/patria-foods/storefront/internal/domain/realtime"
	"github.com/patria-foods/storefront/internal/observability"
)

type testEvent struct {
	name  string
	owner string
}

func (e testEvent) EventName() string { return e.name }
func (e testEvent) OwnerKey() string  { return e.owner }

type recorder struct {
	mu     sync.Mutex
	events []domrealtime.Event
	done   chan struct{}
}

func newRecorder(expect int) *recorder {
	return &recorder{done: make(chan struct{}, expect)}
}

func (r *recorder) handle(_ context.Context, e domrealtime.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func startBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewBus(observability.NopLogger())
	bus.Start(context.Background())
	t.Cleanup(func() { bus.Stop(context.Background()) })
	return bus
}

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := startBus(t)
	rec := newRecorder(1)
	bus.Subscribe("cart.changed", rec.handle)

	err := bus.Publish(context.Background(), testEvent{name: "cart.changed", owner: "u-1"})
	require.NoError(t, err)

	rec.wait(t)
	require.Equal(t, 1, rec.count())
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := startBus(t)

	stopped := newRecorder(1)
	kept := newRecorder(2)
	sub := bus.Subscribe("order.created", stopped.handle)
	bus.Subscribe("order.created", kept.handle)

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.created"}))
	stopped.wait(t)
	kept.wait(t)

	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.created"}))
	kept.wait(t)

	require.Equal(t, 1, stopped.count())
	require.Equal(t, 2, kept.count())
}

func TestBusFilterOwnerDropsForeignEvents(t *testing.T) {
	bus := startBus(t)

	rec := newRecorder(1)
	bus.Subscribe("cart.changed", domrealtime.FilterOwner("u-1", rec.handle))

	// A second subscriber acts as a delivery barrier so we can assert the
	// filtered handler stayed quiet without sleeping.
	barrier := newRecorder(2)
	bus.Subscribe("cart.changed", barrier.handle)

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "cart.changed", owner: "u-2"}))
	barrier.wait(t)
	require.Equal(t, 0, rec.count())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "cart.changed", owner: "u-1"}))
	barrier.wait(t)
	rec.wait(t)
	require.Equal(t, 1, rec.count())
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := startBus(t)

	bus.Subscribe("order.updated", func(context.Context, domrealtime.Event) error {
		panic("boom")
	})
	rec := newRecorder(1)
	bus.Subscribe("order.updated", rec.handle)

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.updated"}))
	rec.wait(t)
	require.Equal(t, 1, rec.count())
}
