package bus

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSyncDeliversToSubscribers(t *testing.T) {
	b := NewEventBus()
	var hits atomic.Int32

	b.Subscribe(EventTypeEmotionApplied, func(e Event) {
		assert.Equal(t, "happiness", e.Data["dominant"])
		hits.Add(1)
	})
	b.Subscribe(EventTypeEmotionApplied, func(Event) { hits.Add(1) })
	b.Subscribe(EventTypeBlinkTriggered, func(Event) { hits.Add(100) })

	b.PublishSync(Event{Type: EventTypeEmotionApplied, Data: map[string]any{"dominant": "happiness"}})
	assert.Equal(t, int32(2), hits.Load())
}

func TestUnsubscribe(t *testing.T) {
	b := NewEventBus()
	var hits atomic.Int32

	cancel := b.SubscribeMultiple([]EventType{EventTypeFeedConnected, EventTypeFeedError}, func(Event) { hits.Add(1) })
	b.PublishSync(Event{Type: EventTypeFeedConnected})
	cancel()
	b.PublishSync(Event{Type: EventTypeFeedConnected})
	b.PublishSync(Event{Type: EventTypeFeedError})

	assert.Equal(t, int32(1), hits.Load())
}

func TestNilBusDropsEvents(t *testing.T) {
	var b *EventBus
	assert.NotPanics(t, func() {
		b.Publish(Event{Type: EventTypeUpdateRejected})
		b.PublishSync(Event{Type: EventTypeUpdateRejected})
	})
}

func TestClear(t *testing.T) {
	b := NewEventBus()
	var hits atomic.Int32
	b.Subscribe(EventTypeConfigReloaded, func(Event) { hits.Add(1) })
	b.Clear()
	b.PublishSync(Event{Type: EventTypeConfigReloaded})
	assert.Zero(t, hits.Load())
}
