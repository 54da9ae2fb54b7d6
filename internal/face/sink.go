package face

// Sink receives composed channel weights. Implementations clamp to their own
// native range and silently ignore channels they do not have.
type Sink interface {
	Apply(ch Channel, weight float64)
}

// Flusher is implemented by sinks that commit a frame after every channel of
// a tick has been applied.
type Flusher interface {
	Flush()
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ch Channel, weight float64)

func (f SinkFunc) Apply(ch Channel, weight float64) { f(ch, weight) }

// Discard drops every weight.
var Discard Sink = SinkFunc(func(Channel, float64) {})
