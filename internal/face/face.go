// Package face drives a face's action units from streamed emotion scores.
//
// Emotion updates flow through a Prioritizer and the fixed emotion-to-action
// unit mapping into a TransitionEngine. Every frame, Face.Tick advances the
// engine and the idle layer by the same dt, composes blink and breathing on
// top, and pushes every channel to a Sink.
package face

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the per-face animation parameters.
type Config struct {
	TransitionDuration time.Duration
	Curve              Curve

	TopK           int
	IntensityScale float64
	Floor          float64

	Idle IdleConfig
}

func DefaultConfig() Config {
	return Config{
		TransitionDuration: DefaultTransitionDuration,
		Curve:              EaseInOut,
		TopK:               DefaultTopK,
		IntensityScale:     DefaultIntensityScale,
		Floor:              DefaultFloor,
		Idle:               DefaultIdleConfig(),
	}
}

// Option customizes a Face.
type Option func(*Face)

func WithLogger(log zerolog.Logger) Option {
	return func(f *Face) { f.log = log }
}

// WithRand fixes the blink jitter source, mainly for tests.
func WithRand(rng *rand.Rand) Option {
	return func(f *Face) { f.rng = rng }
}

func WithID(id uuid.UUID) Option {
	return func(f *Face) { f.id = id }
}

// Face is one animated face instance. Updates may arrive from any goroutine;
// they take effect at the next Tick.
type Face struct {
	mu sync.Mutex

	id   uuid.UUID
	log  zerolog.Logger
	rng  *rand.Rand
	topK int

	prioritizer *Prioritizer
	engine      *TransitionEngine
	idle        *IdleLayer
	sink        Sink

	emotions EmotionVector
	frame    Frame
}

// New validates cfg and returns a neutral face. A nil sink discards output.
func New(cfg Config, sink Sink, opts ...Option) (*Face, error) {
	f := &Face{
		id:   uuid.New(),
		log:  zerolog.Nop(),
		sink: sink,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.sink == nil {
		f.sink = Discard
	}

	if cfg.TopK <= 0 {
		return nil, misconfigured("top_k", "must be positive, got %d", cfg.TopK)
	}
	if cfg.Curve == nil {
		cfg.Curve = EaseInOut
	}

	var err error
	if f.prioritizer, err = NewPrioritizer(cfg.IntensityScale, cfg.Floor); err != nil {
		return nil, err
	}
	if f.engine, err = NewTransitionEngine(cfg.TransitionDuration, cfg.Curve); err != nil {
		return nil, err
	}
	if f.idle, err = NewIdleLayer(cfg.Idle, f.rng); err != nil {
		return nil, err
	}
	f.topK = cfg.TopK
	f.log = f.log.With().Str("face", f.id.String()).Logger()
	f.frame = f.idle.Compose(f.engine.Current())
	return f, nil
}

func (f *Face) ID() uuid.UUID { return f.id }

func (f *Face) resolve(d time.Duration) time.Duration {
	if d <= 0 {
		return f.engine.DefaultDuration()
	}
	return d
}

// SetEmotions retargets the face from a raw emotion vector. A non-positive
// duration selects the engine default.
func (f *Face) SetEmotions(e EmotionVector, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setEmotionsLocked(e, d)
}

func (f *Face) setEmotionsLocked(e EmotionVector, d time.Duration) {
	f.emotions = e
	active := f.prioritizer.Select(e, f.topK)
	target := MapEmotions(active)
	d = f.resolve(d)
	f.engine.SetTarget(target, d)

	ev := f.log.Debug().Int("active", active.Active()).Dur("duration", d).Uint64("token", f.engine.Token())
	if dom, ok := active.Dominant(); ok {
		ev = ev.Str("dominant", dom.String())
	}
	ev.Msg("emotion target set")
}

// PatchEmotion replaces a single emotion in the last received vector and
// retargets from the result.
func (f *Face) PatchEmotion(e Emotion, value float64, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setEmotionsLocked(f.emotions.With(e, value), d)
}

// SetActionUnits retargets the face directly, bypassing prioritization and
// mapping.
func (f *Face) SetActionUnits(v Vector, d time.Duration) {
	d = f.resolve(d)
	f.engine.SetTarget(v, d)
	f.log.Debug().Dur("duration", d).Uint64("token", f.engine.Token()).Msg("action unit target set")
}

// SetPrioritizer swaps prioritization settings; the current target is kept
// until the next emotion update.
func (f *Face) SetPrioritizer(p *Prioritizer, topK int) error {
	if p == nil {
		return misconfigured("prioritizer", "is nil")
	}
	if topK <= 0 {
		return misconfigured("top_k", "must be positive, got %d", topK)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prioritizer = p
	f.topK = topK
	return nil
}

// TriggerBlink starts a blink at the next tick.
func (f *Face) TriggerBlink() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idle.TriggerBlink()
}

// Tick advances the face by dt as one atomic step and flushes the composed
// frame to the sink.
func (f *Face) Tick(dt time.Duration) Frame {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.engine.Advance(dt)
	f.idle.Advance(dt)
	frame := f.idle.Compose(current)

	for ch, w := range frame {
		f.sink.Apply(Channel(ch), w)
	}
	if fl, ok := f.sink.(Flusher); ok {
		fl.Flush()
	}

	f.frame = frame
	return frame
}

// Frame returns the output of the most recent tick.
func (f *Face) Frame() Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

// Emotions returns the last raw emotion vector received.
func (f *Face) Emotions() EmotionVector {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.emotions
}

func (f *Face) Target() Vector {
	return f.engine.Target()
}

func (f *Face) State() TransitionState {
	return f.engine.State()
}

func (f *Face) BlinkPhase() BlinkPhase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idle.Phase()
}
