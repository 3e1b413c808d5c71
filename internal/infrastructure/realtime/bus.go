package realtime

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	domrealtime "github.com/patria-foods/storefront/internal/domain/realtime"
	"github.com/patria-foods/storefront/internal/observability"
	"github.com/patria-foods/storefront/internal/observability/logctx"
)

const componentBus = "realtime_bus"

type subscription struct {
	id      uint64
	handler domrealtime.Handler
}

// Bus is an in-memory fanout for change notifications. It is not durable: a
// restart drops queued events, and clients are expected to refetch on
// reconnect.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string][]*subscription
	nextID      uint64
	queue       chan domrealtime.Event
	startOnce   sync.Once
	stopOnce    sync.Once
	cancel      context.CancelFunc
	concurrency int
	log         observability.Logger
}

func NewBus(logger observability.Logger) *Bus {
	return &Bus{
		subs:        make(map[string][]*subscription),
		queue:       make(chan domrealtime.Event, 1024), // buffer for backpressure
		concurrency: 8,                                  // per-event handler fanout cap
		log:         logger.With(observability.F("component", componentBus)),
	}
}

func (b *Bus) Subscribe(eventName string, h domrealtime.Handler) domrealtime.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, handler: h}
	b.subs[eventName] = append(b.subs[eventName], sub)

	return &removal{bus: b, eventName: eventName, id: sub.id}
}

type removal struct {
	bus       *Bus
	eventName string
	id        uint64
	once      sync.Once
}

func (r *removal) Unsubscribe() {
	r.once.Do(func() {
		r.bus.mu.Lock()
		defer r.bus.mu.Unlock()

		subs := r.bus.subs[r.eventName]
		for i, s := range subs {
			if s.id == r.id {
				r.bus.subs[r.eventName] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	})
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(ctx)
		b.cancel = cancel
		go b.dispatchLoop(bg)
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		close(b.queue)
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domrealtime.Event) error {
	if e == nil {
		return nil
	}
	select {
	case b.queue <- e:
		logctx.FromOr(ctx, b.log).Debug("event_enqueued",
			observability.F("event", e.EventName()),
		)
		return nil
	case <-ctx.Done():
		logctx.FromOr(ctx, b.log).Warn("event_enqueue_aborted",
			observability.F("event", e.EventName()),
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-b.queue:
			if !ok {
				return
			}
			b.fanout(ctx, e)
		}
	}
}

func (b *Bus) fanout(ctx context.Context, e domrealtime.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := make([]domrealtime.Handler, 0, len(b.subs[name]))
	for _, s := range b.subs[name] {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	ctx = context.WithoutCancel(ctx)
	ctx = logctx.With(ctx, b.log)

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event_handler_panic",
						observability.F("event", name),
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			hctx = logctx.With(hctx, b.log.With(observability.F("event", name)))
			err := h(hctx, e)
			cancel()
			if err != nil {
				b.log.Warn("event_handler_error",
					observability.F("event", name),
					observability.F("error", err),
				)
			}
		}()
	}

	wg.Wait()

	b.log.Debug("event_fanned_out",
		observability.F("event", name),
		observability.F("handlers", len(handlers)),
	)
}
