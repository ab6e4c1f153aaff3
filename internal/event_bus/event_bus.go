package event_bus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType is an identifier for events.
type EventType string

// Event is the envelope handed to subscribers. Data stays untyped so export
// progress and export results can share one bus.
type Event struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      any
}

// NewEvent stamps the event with the current time.
func NewEvent(ctx context.Context, eventType EventType, data any) Event {
	return Event{
		ctx:       ctx,
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Context returns the publisher's context, or Background when none was given.
// Background export jobs publish with a context that outlives the HTTP request
// which started them.
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// EventT is the typed envelope delivered by SubscribeTyped.
type EventT[T any] struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      T
}

func (e EventT[T]) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

type handler func(Event) error

// subscription pairs a handler with its registration number. Numbers only
// grow, so sorting by id restores subscription order.
type subscription struct {
	id uint64
	h  handler
}

// EventBus dispatches synchronously on the publisher's goroutine. Subscribers that
// own a single-threaded context (a terminal, a UI loop) must post the value to
// their own loop rather than act on it in place.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType]map[uint64]handler
	nextID      uint64
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType]map[uint64]handler),
	}
}

// Subscribe registers h for eventType and returns a function removing it.
// Calling the returned function twice is harmless.
func (eb *EventBus) Subscribe(eventType EventType, h func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.nextID++
	id := eb.nextID
	handlers, ok := eb.subscribers[eventType]
	if !ok {
		handlers = make(map[uint64]handler)
		eb.subscribers[eventType] = handlers
	}
	handlers[id] = h
	return func() { eb.remove(eventType, id) }
}

func (eb *EventBus) remove(eventType EventType, id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	handlers := eb.subscribers[eventType]
	delete(handlers, id)
	if len(handlers) == 0 {
		// keeps the map from growing with one-off command subscriptions
		delete(eb.subscribers, eventType)
	}
}

// SubscribeTyped registers a handler that only sees payloads of type T. Events
// carrying nil or another type are skipped, not reported as errors.
//
//	unsub := event_bus.SubscribeTyped(bus, event_bus.ExportProgressed,
//	    func(e event_bus.EventT[event_bus.ExportProgress]) error {
//	        log.Infof("job %s at %d%%", e.Data.JobId, e.Data.Percent)
//	        return nil
//	    })
func SubscribeTyped[T any](eb *EventBus, eventType EventType, h func(EventT[T]) error) (unsubscribe func()) {
	return eb.Subscribe(eventType, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("EventBus: skipping %s for typed handler, expected %T, got %T", eventType, *new(T), e.Data)
			return nil
		}
		return h(EventT[T]{
			ctx:       e.ctx,
			Type:      e.Type,
			Timestamp: e.Timestamp,
			Data:      payload,
		})
	})
}

// snapshot copies the handlers of eventType so none of them runs under the lock.
func (eb *EventBus) snapshot(eventType EventType) []subscription {
	eb.mu.RLock()
	subs := make([]subscription, 0, len(eb.subscribers[eventType]))
	for id, h := range eb.subscribers[eventType] {
		subs = append(subs, subscription{id, h})
	}
	eb.mu.RUnlock()
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	return subs
}

// Publish calls every handler of e.Type in subscription order. Handler errors and
// panics are collected and the remaining handlers still run. Once the event's
// context ends, the handlers not yet called are skipped.
func (eb *EventBus) Publish(e Event) error {
	if err := e.Context().Err(); err != nil {
		return fmt.Errorf("event %s: context cancelled before publish: %w", e.Type, err)
	}

	var errs []error
	for _, sub := range eb.snapshot(e.Type) {
		if err := e.Context().Err(); err != nil {
			errs = append(errs, fmt.Errorf("context cancelled during event processing: %w", err))
			break
		}
		if err := sub.call(e); err != nil {
			log.Errorf("EventBus: handler error (ID %d) for event %s: %v", sub.id, e.Type, err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d handler(s) failed: %v", e.Type, len(errs), errs)
	}
	return nil
}

// call runs the handler and turns a panic into an error.
func (s subscription) call(e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic (ID %d) for event %s: %v", s.id, e.Type, r)
		}
	}()
	return s.h(e)
}
