package face

import (
	"sync"
	"time"
)

// DefaultTransitionDuration applies when an update does not name a duration.
const DefaultTransitionDuration = 500 * time.Millisecond

// TransitionState is the externally visible state of a TransitionEngine.
type TransitionState int

const (
	StateIdle TransitionState = iota
	StateTransitioning
)

func (s TransitionState) String() string {
	if s == StateTransitioning {
		return "transitioning"
	}
	return "idle"
}

// TransitionEngine moves the current action unit vector toward a target over
// a duration using an easing curve. At most one transition is in flight;
// SetTarget replaces it, starting from the current interpolated value.
type TransitionEngine struct {
	mu sync.Mutex

	start   Vector
	current Vector
	target  Vector

	elapsed  time.Duration
	duration time.Duration
	state    TransitionState
	token    uint64

	curve           Curve
	defaultDuration time.Duration
}

// NewTransitionEngine returns an idle engine at the neutral vector.
func NewTransitionEngine(defaultDuration time.Duration, curve Curve) (*TransitionEngine, error) {
	if defaultDuration < 0 {
		return nil, misconfigured("transition_duration", "must not be negative, got %s", defaultDuration)
	}
	if curve == nil {
		return nil, misconfigured("easing", "curve is nil")
	}
	return &TransitionEngine{
		curve:           curve,
		defaultDuration: defaultDuration,
	}, nil
}

// SetTarget cancels any in-flight transition and starts a new one from the
// current value. A non-positive duration snaps to target immediately.
func (e *TransitionEngine) SetTarget(target Vector, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.token++
	e.start = e.current
	e.target = target
	e.elapsed = 0
	e.duration = duration

	if duration <= 0 {
		e.current = target
		e.state = StateIdle
		return
	}
	e.state = StateTransitioning
}

// Advance moves the transition forward by dt and returns the current vector.
// Negative dt is treated as zero.
func (e *TransitionEngine) Advance(dt time.Duration) Vector {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle {
		return e.current
	}
	if dt > 0 {
		e.elapsed += dt
	}

	if e.elapsed >= e.duration {
		e.current = e.target
		e.state = StateIdle
		return e.current
	}

	t := float64(e.elapsed) / float64(e.duration)
	e.current = e.start.Lerp(e.target, e.curve(clamp01(t)))
	return e.current
}

func (e *TransitionEngine) Current() Vector {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *TransitionEngine) Target() Vector {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

func (e *TransitionEngine) State() TransitionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Token identifies the most recent SetTarget call.
func (e *TransitionEngine) Token() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token
}

// Progress returns the linear progress of the active transition, 1 when idle.
func (e *TransitionEngine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle || e.duration <= 0 {
		return 1
	}
	return clamp01(float64(e.elapsed) / float64(e.duration))
}

func (e *TransitionEngine) DefaultDuration() time.Duration {
	return e.defaultDuration
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
