// Package feed connects a face to the outside world: a sentiment backend it
// polls, an upstream WebSocket it follows, and a WebSocket endpoint clients
// push updates to.
package feed

import (
	"github.com/normanking/cortexface/internal/bus"
	"github.com/normanking/cortexface/internal/metrics"
)

// EmotionHandler accepts a raw emotion payload.
type EmotionHandler interface {
	HandleEmotion(data []byte) error
}

// Dispatcher accepts a raw envelope.
type Dispatcher interface {
	Dispatch(data []byte) error
}

type options struct {
	metrics *metrics.Metrics
	events  *bus.EventBus
}

type Option func(*options)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithEventBus(b *bus.EventBus) Option {
	return func(o *options) { o.events = b }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) publish(t bus.EventType, feed string, extra map[string]any) {
	data := map[string]any{"feed": feed}
	for k, v := range extra {
		data[k] = v
	}
	o.events.Publish(bus.Event{Type: t, Data: data})
}
