// Package eventbus provides the in-process event bus used between the playback
// controller and its observers (now-playing presenters, session store, CLI).
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// ErrClosed is returned by Close on a bus that is already closed.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus delivers events on the publisher's goroutine, in subscription
// order, type-specific handlers first and wildcard handlers after.
//
// The playback controller publishes after releasing its own lock, so handlers
// may call back into the controller. Handlers should still return quickly: a
// progress event is published roughly three times per second while playing.
//
// Handler lists are copy-on-write. Publish reads them under a read lock and
// never copies, so progress events cost no allocation on the bus side.
type SyncEventBus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	routes   map[domain.EventType][]subscription
	wildcard []subscription
	closed   bool

	seq    atomic.Uint64
	panics atomic.Int64
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates an empty bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{
		routes: make(map[domain.EventType][]subscription),
	}
}

// SetLogger sets the logger used for handler panics and debug delivery traces.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish delivers event to every handler registered for its type, then to
// wildcard handlers. A closed bus drops the event. A panicking handler is
// logged and counted and the remaining handlers still run.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	typed := bus.routes[event.Type()]
	wildcard := bus.wildcard
	logger := bus.logger
	bus.mu.RUnlock()

	for _, sub := range typed {
		bus.deliver(logger, sub, event)
	}
	for _, sub := range wildcard {
		bus.deliver(logger, sub, event)
	}
}

func (bus *SyncEventBus) deliver(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.panics.Add(1)
			if logger != nil {
				logger.Error("event handler panicked",
					slog.Any("panic", r),
					slog.String("event_type", string(event.Type())),
					slog.String("subscription", string(sub.id)))
			}
		}
	}()

	if logger != nil && logger.Enabled(context.Background(), slog.LevelDebug) {
		logger.Debug("event delivered",
			slog.String("event_type", string(event.Type())),
			slog.String("subscription", string(sub.id)),
			slog.String("handler", runtime.FuncForPC(reflect.ValueOf(sub.handler).Pointer()).Name()))
	}
	sub.handler(event)
}

// Subscribe registers handler for eventType and returns its subscription ID.
// Registering the same handler twice yields two independent subscriptions.
// It panics on a nil handler or a closed bus.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	sub := subscription{id: bus.nextID("sub"), handler: handler}
	bus.routes[eventType] = append(slices.Clip(bus.routes[eventType]), sub)
	return sub.id
}

// SubscribeMany registers one handler for several event types.
// The returned IDs are in the same order as eventTypes.
func (bus *SyncEventBus) SubscribeMany(eventTypes []domain.EventType, handler domain.EventHandler) []domain.SubscriptionID {
	ids := make([]domain.SubscriptionID, 0, len(eventTypes))
	for _, eventType := range eventTypes {
		ids = append(ids, bus.Subscribe(eventType, handler))
	}
	return ids
}

// SubscribeAll registers a handler that receives every event.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	sub := subscription{id: bus.nextID("sub-all"), handler: handler}
	bus.wildcard = append(slices.Clip(bus.wildcard), sub)
	return sub.id
}

// Unsubscribe removes a subscription. Remaining handlers keep their delivery
// order. Unknown IDs are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	matches := func(sub subscription) bool { return sub.id == id }

	for eventType, subs := range bus.routes {
		if !slices.ContainsFunc(subs, matches) {
			continue
		}
		remaining := slices.DeleteFunc(slices.Clone(subs), matches)
		if len(remaining) == 0 {
			delete(bus.routes, eventType)
		} else {
			bus.routes[eventType] = remaining
		}
		return
	}

	if slices.ContainsFunc(bus.wildcard, matches) {
		bus.wildcard = slices.DeleteFunc(slices.Clone(bus.wildcard), matches)
	}
}

// HasSubscribers reports whether an event of eventType would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.routes[eventType]) > 0 || len(bus.wildcard) > 0
}

// SubscriberCount returns the number of typed and wildcard subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.wildcard)
	for _, subs := range bus.routes {
		count += len(subs)
	}
	return count
}

// Panics returns how many handler invocations have panicked.
func (bus *SyncEventBus) Panics() int64 {
	return bus.panics.Load()
}

// Close drops every subscription. Later publishes are ignored and later
// subscribes panic. Closing twice returns ErrClosed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.routes = make(map[domain.EventType][]subscription)
	bus.wildcard = nil
	return nil
}

func (bus *SyncEventBus) nextID(prefix string) domain.SubscriptionID {
	return domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.seq.Add(1)))
}

var _ ports.EventBus = (*SyncEventBus)(nil)
