package face

import (
	"math"
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"
)

// BlinkPhase is the state of the blink cycle.
type BlinkPhase int

const (
	BlinkWaiting BlinkPhase = iota
	BlinkClosing
	BlinkOpening
)

func (p BlinkPhase) String() string {
	switch p {
	case BlinkClosing:
		return "closing"
	case BlinkOpening:
		return "opening"
	default:
		return "waiting"
	}
}

// IdleConfig parameterizes involuntary motion.
type IdleConfig struct {
	BlinkInterval time.Duration
	BlinkDuration time.Duration

	Breathing          bool
	BreathingSpeed     float64 // cycles per second
	BreathingAmplitude float64

	// MicroMotionAmplitude enables low-frequency noise on the brows and
	// cheeks when positive.
	MicroMotionAmplitude float64
	MicroMotionRate      float64
}

func DefaultIdleConfig() IdleConfig {
	return IdleConfig{
		BlinkInterval:      3 * time.Second,
		BlinkDuration:      150 * time.Millisecond,
		Breathing:          true,
		BreathingSpeed:     0.3,
		BreathingAmplitude: 0.04,
		MicroMotionRate:    0.5,
	}
}

func (c IdleConfig) Validate() error {
	if c.BlinkInterval <= 0 {
		return misconfigured("blink_interval", "must be positive, got %s", c.BlinkInterval)
	}
	if c.BlinkDuration <= 0 {
		return misconfigured("blink_duration", "must be positive, got %s", c.BlinkDuration)
	}
	if c.BreathingSpeed < 0 || math.IsNaN(c.BreathingSpeed) {
		return misconfigured("breathing_speed", "must not be negative, got %v", c.BreathingSpeed)
	}
	if c.BreathingAmplitude < 0 || math.IsNaN(c.BreathingAmplitude) {
		return misconfigured("breathing_amplitude", "must not be negative, got %v", c.BreathingAmplitude)
	}
	if c.MicroMotionAmplitude < 0 || math.IsNaN(c.MicroMotionAmplitude) {
		return misconfigured("micro_motion_amplitude", "must not be negative, got %v", c.MicroMotionAmplitude)
	}
	if c.MicroMotionAmplitude > 0 && c.MicroMotionRate <= 0 {
		return misconfigured("micro_motion_rate", "must be positive when micro motion is enabled, got %v", c.MicroMotionRate)
	}
	return nil
}

// BreathValue is the breathing offset at t seconds after the phase origin.
func BreathValue(t, speed, amplitude float64) float64 {
	return (math.Sin(t*speed*2*math.Pi) + 1) * amplitude / 2
}

// IdleLayer produces blinking and breathing on its own clock, advanced by the
// same dt as the transition engine. It is not safe for concurrent use; the
// owning Face serializes access.
type IdleLayer struct {
	cfg IdleConfig
	rng *rand.Rand

	now          time.Duration
	nextBlink    time.Duration
	phase        BlinkPhase
	blinkElapsed time.Duration
	breathOrigin time.Duration

	browNoise  *perlin.Perlin
	cheekNoise *perlin.Perlin
}

// NewIdleLayer validates cfg. A nil rng is seeded from the wall clock.
func NewIdleLayer(cfg IdleConfig, rng *rand.Rand) (*IdleLayer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	l := &IdleLayer{cfg: cfg, rng: rng}
	l.nextBlink = l.rollBlinkGap()

	if cfg.MicroMotionAmplitude > 0 {
		seed := rng.Int63()
		l.browNoise = perlin.NewPerlin(2, 2, 3, seed)
		l.cheekNoise = perlin.NewPerlin(2, 2, 3, seed+1)
	}
	return l, nil
}

func (l *IdleLayer) rollBlinkGap() time.Duration {
	interval := float64(l.cfg.BlinkInterval)
	return time.Duration(interval*0.5 + l.rng.Float64()*interval)
}

// Advance moves the idle clock forward by dt and steps the blink cycle.
func (l *IdleLayer) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	l.now += dt
	if l.phase != BlinkWaiting {
		l.blinkElapsed += dt
	}

	half := l.cfg.BlinkDuration / 2
	for {
		switch l.phase {
		case BlinkWaiting:
			if l.now < l.nextBlink {
				return
			}
			l.phase = BlinkClosing
			l.blinkElapsed = l.now - l.nextBlink
		case BlinkClosing:
			if l.blinkElapsed < half {
				return
			}
			l.blinkElapsed -= half
			l.phase = BlinkOpening
		case BlinkOpening:
			if l.blinkElapsed < half {
				return
			}
			// the gap runs from the moment the lids reopened, not from now
			finished := l.now - (l.blinkElapsed - half)
			l.phase = BlinkWaiting
			l.blinkElapsed = 0
			l.nextBlink = finished + l.rollBlinkGap()
		}
	}
}

// BlinkValue is the current lid closure in [0,1].
func (l *IdleLayer) BlinkValue() float64 {
	half := float64(l.cfg.BlinkDuration / 2)
	switch l.phase {
	case BlinkClosing:
		return clamp01(float64(l.blinkElapsed) / half)
	case BlinkOpening:
		return clamp01(1 - float64(l.blinkElapsed)/half)
	default:
		return 0
	}
}

// Breath is the current breathing offset added to jaw drop.
func (l *IdleLayer) Breath() float64 {
	if !l.cfg.Breathing {
		return 0
	}
	t := (l.now - l.breathOrigin).Seconds()
	return BreathValue(t, l.cfg.BreathingSpeed, l.cfg.BreathingAmplitude)
}

// Compose overlays idle motion on an emotion-driven vector. Breathing is
// added to jaw drop; blink channels come solely from the blink cycle.
func (l *IdleLayer) Compose(v Vector) Frame {
	var f Frame
	copy(f[:ActionUnitCount], v[:])

	f[JawDrop] += l.Breath()

	if l.browNoise != nil {
		t := l.now.Seconds() * l.cfg.MicroMotionRate
		amp := l.cfg.MicroMotionAmplitude
		f[InnerBrowRaise] += l.browNoise.Noise1D(t) * amp
		f[CheekRaise] += l.cheekNoise.Noise1D(t*0.7) * amp * 0.5
	}

	blink := l.BlinkValue()
	f[EyeBlinkLeft] = blink
	f[EyeBlinkRight] = blink
	return f
}

// TriggerBlink starts a blink now. An opening blink reverses into closing
// from its current lid position.
func (l *IdleLayer) TriggerBlink() {
	half := l.cfg.BlinkDuration / 2
	switch l.phase {
	case BlinkWaiting:
		l.phase = BlinkClosing
		l.blinkElapsed = 0
	case BlinkOpening:
		l.phase = BlinkClosing
		l.blinkElapsed = half - l.blinkElapsed
	}
}

// ResetBreathing restarts the breathing cycle at the current idle time.
func (l *IdleLayer) ResetBreathing() {
	l.breathOrigin = l.now
}

func (l *IdleLayer) Phase() BlinkPhase { return l.phase }

// NextBlink is the idle-clock time of the next scheduled blink.
func (l *IdleLayer) NextBlink() time.Duration { return l.nextBlink }

// Now is the idle clock.
func (l *IdleLayer) Now() time.Duration { return l.now }
