// Package bus carries face lifecycle events between the feeds, the driver and
// the CLI without coupling them.
package bus

import (
	"sync"
)

type EventType string

const (
	// Inbound updates
	EventTypeEmotionApplied     EventType = "face.emotion_applied"
	EventTypeActionUnitsApplied EventType = "face.action_units_applied"
	EventTypeBlinkTriggered     EventType = "face.blink_triggered"
	EventTypeUpdateRejected     EventType = "face.update_rejected"

	// Feed transport
	EventTypeFeedConnected    EventType = "feed.connected"
	EventTypeFeedDisconnected EventType = "feed.disconnected"
	EventTypeFeedError        EventType = "feed.error"

	// Configuration
	EventTypeConfigReloaded EventType = "config.reloaded"
)

type Event struct {
	Type EventType
	Data map[string]any
}

type Handler func(Event)

// EventBus is a small pub/sub bus. A nil *EventBus drops every event.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   uint64
}

type subscription struct {
	id uint64
	fn Handler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]subscription),
	}
}

// Subscribe registers handler for eventType and returns a func that removes it.
func (b *EventBus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, fn: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (b *EventBus) SubscribeMultiple(eventTypes []EventType, handler Handler) func() {
	cancels := make([]func(), 0, len(eventTypes))
	for _, et := range eventTypes {
		cancels = append(cancels, b.Subscribe(et, handler))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

func (b *EventBus) snapshot(t EventType) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.handlers[t]
	out := make([]Handler, len(subs))
	for i, s := range subs {
		out[i] = s.fn
	}
	return out
}

// Publish delivers event to every handler on its own goroutine.
func (b *EventBus) Publish(event Event) {
	if b == nil {
		return
	}
	for _, h := range b.snapshot(event.Type) {
		go h(event)
	}
}

// PublishSync delivers event and waits for every handler to return.
func (b *EventBus) PublishSync(event Event) {
	if b == nil {
		return
	}
	var wg sync.WaitGroup
	for _, h := range b.snapshot(event.Type) {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			h(event)
		}(h)
	}
	wg.Wait()
}

func (b *EventBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[EventType][]subscription)
}
