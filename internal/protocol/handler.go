package protocol

import (
	"errors"
	"sync"
	"time"

	"github.com/normanking/cortexface/internal/bus"
	"github.com/normanking/cortexface/internal/face"
	"github.com/normanking/cortexface/internal/metrics"
	"github.com/rs/zerolog"
)

// Target is the face surface the handler drives. *face.Face satisfies it.
type Target interface {
	SetEmotions(e face.EmotionVector, d time.Duration)
	PatchEmotion(e face.Emotion, value float64, d time.Duration)
	SetActionUnits(v face.Vector, d time.Duration)
	TriggerBlink()
}

// Update kinds used in metrics and events.
const (
	KindEmotion     = "emotion"
	KindActionUnits = "action_units"
	KindSingle      = "single"
	KindBlink       = "blink"
)

// Handler validates inbound messages and applies them to one Target. A
// rejected message leaves the target untouched.
type Handler struct {
	target  Target
	log     zerolog.Logger
	metrics *metrics.Metrics
	events  *bus.EventBus

	mu   sync.RWMutex
	last Metadata
}

type HandlerOption func(*Handler)

func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

func WithEventBus(b *bus.EventBus) HandlerOption {
	return func(h *Handler) { h.events = b }
}

func NewHandler(target Target, log zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		target: target,
		log:    log.With().Str("component", "protocol").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleEmotion applies an EmotionPayload.
func (h *Handler) HandleEmotion(data []byte) error {
	p, err := DecodeEmotion(data)
	if err != nil {
		return h.reject(KindEmotion, err)
	}

	e := p.Emotions()
	h.target.SetEmotions(e, p.Duration())

	h.mu.Lock()
	h.last = p.Metadata()
	h.mu.Unlock()

	payload := map[string]any{"emotions": e.Map()}
	if dom, ok := e.Dominant(); ok {
		payload["dominant"] = dom.String()
	}
	h.accept(KindEmotion, bus.EventTypeEmotionApplied, payload)
	return nil
}

// HandleActionUnits applies an ActionUnitPayload.
func (h *Handler) HandleActionUnits(data []byte) error {
	v, d, err := DecodeActionUnits(data)
	if err != nil {
		return h.reject(KindActionUnits, err)
	}
	h.target.SetActionUnits(v, d)
	h.accept(KindActionUnits, bus.EventTypeActionUnitsApplied, map[string]any{"actionUnits": v.Map()})
	return nil
}

// HandleSingle applies a "name:value" update. Malformed input is logged and
// dropped.
func (h *Handler) HandleSingle(msg string) {
	e, v, err := ParseSingle(msg)
	if err != nil {
		_ = h.reject(KindSingle, err)
		return
	}
	h.target.PatchEmotion(e, v, 0)
	h.accept(KindSingle, bus.EventTypeEmotionApplied, map[string]any{"emotion": e.String(), "value": v})
}

func (h *Handler) HandleBlink() {
	h.target.TriggerBlink()
	h.accept(KindBlink, bus.EventTypeBlinkTriggered, nil)
}

// Dispatch routes an Envelope by type. An object with no type at all is
// taken as a bare emotion state.
func (h *Handler) Dispatch(data []byte) error {
	if untyped(data) {
		return h.HandleEmotion(data)
	}
	env, body, err := DecodeEnvelope(data)
	if err != nil {
		return h.reject("envelope", err)
	}

	switch env.Type {
	case TypeSetEmotion:
		return h.HandleEmotion(body)
	case TypeSetActionUnits:
		return h.HandleActionUnits(body)
	case TypeSetSingleEmotion:
		h.HandleSingle(env.Value)
		return nil
	case TypeBlink:
		h.HandleBlink()
		return nil
	default:
		return h.reject("envelope", invalid("type", "unknown message type %q", env.Type))
	}
}

// LastMetadata returns the passthrough fields of the last accepted emotion
// payload.
func (h *Handler) LastMetadata() Metadata {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

func (h *Handler) accept(kind string, et bus.EventType, data map[string]any) {
	h.metrics.Update(kind, metrics.ResultAccepted)
	h.events.Publish(bus.Event{Type: et, Data: data})
}

func (h *Handler) reject(kind string, err error) error {
	h.metrics.Update(kind, metrics.ResultRejected)

	var verr *face.ValidationError
	if errors.As(err, &verr) {
		h.log.Warn().Str("kind", kind).Str("field", verr.Field).Str("reason", verr.Reason).Msg("update rejected")
	} else {
		h.log.Warn().Str("kind", kind).Err(err).Msg("update rejected")
	}
	h.events.Publish(bus.Event{Type: bus.EventTypeUpdateRejected, Data: map[string]any{"kind": kind, "error": err.Error()}})
	return err
}
