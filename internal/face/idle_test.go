package face

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdle(t *testing.T, cfg IdleConfig) *IdleLayer {
	t.Helper()
	l, err := NewIdleLayer(cfg, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	return l
}

func TestBlinkCycle(t *testing.T) {
	cfg := DefaultIdleConfig()
	l := newIdle(t, cfg)

	next := l.NextBlink()
	assert.GreaterOrEqual(t, next, cfg.BlinkInterval/2)
	assert.Less(t, next, cfg.BlinkInterval*3/2)

	l.Advance(next - time.Millisecond)
	assert.Equal(t, BlinkWaiting, l.Phase())
	assert.Zero(t, l.BlinkValue())

	l.Advance(time.Millisecond)
	assert.Equal(t, BlinkClosing, l.Phase())
	assert.Zero(t, l.BlinkValue())

	quarter := cfg.BlinkDuration / 4
	l.Advance(quarter)
	assert.InDelta(t, 0.5, l.BlinkValue(), 1e-9)

	l.Advance(quarter)
	assert.Equal(t, BlinkOpening, l.Phase())
	assert.InDelta(t, 1.0, l.BlinkValue(), 1e-9)

	l.Advance(quarter)
	assert.InDelta(t, 0.5, l.BlinkValue(), 1e-9)

	l.Advance(quarter)
	assert.Equal(t, BlinkWaiting, l.Phase())
	assert.Zero(t, l.BlinkValue())

	gap := l.NextBlink() - l.Now()
	assert.GreaterOrEqual(t, gap, cfg.BlinkInterval/2)
	assert.Less(t, gap, cfg.BlinkInterval*3/2)
}

func TestBlinkCarriesOverflowAcrossPhases(t *testing.T) {
	cfg := DefaultIdleConfig()
	l := newIdle(t, cfg)

	l.Advance(l.NextBlink() + cfg.BlinkDuration/2 + cfg.BlinkDuration/4)
	assert.Equal(t, BlinkOpening, l.Phase())
	assert.InDelta(t, 0.5, l.BlinkValue(), 1e-9)
}

func TestBlinkGapCountsFromReopening(t *testing.T) {
	cfg := DefaultIdleConfig()
	exact := newIdle(t, cfg)
	coarse := newIdle(t, cfg)
	require.Equal(t, exact.NextBlink(), coarse.NextBlink())

	exact.Advance(exact.NextBlink())
	exact.Advance(cfg.BlinkDuration)
	require.Equal(t, BlinkWaiting, exact.Phase())

	overshoot := 40 * time.Millisecond
	coarse.Advance(coarse.NextBlink() + cfg.BlinkDuration + overshoot)
	require.Equal(t, BlinkWaiting, coarse.Phase())
	assert.Equal(t, exact.Now()+overshoot, coarse.Now())
	assert.Equal(t, exact.NextBlink(), coarse.NextBlink())
}

func TestBlinkCatchesUpAcrossLongSteps(t *testing.T) {
	cfg := DefaultIdleConfig()
	l := newIdle(t, cfg)

	l.Advance(10 * cfg.BlinkInterval)
	assert.Greater(t, l.NextBlink(), l.Now()-cfg.BlinkDuration)
	if l.Phase() == BlinkWaiting {
		assert.Greater(t, l.NextBlink(), l.Now())
	}
}

func TestBlinkIntervalsAreJittered(t *testing.T) {
	cfg := DefaultIdleConfig()
	l := newIdle(t, cfg)

	gaps := map[time.Duration]bool{}
	for i := 0; i < 5; i++ {
		l.Advance(l.NextBlink() - l.Now())
		start := l.Now()
		l.Advance(cfg.BlinkDuration)
		require.Equal(t, BlinkWaiting, l.Phase())
		gaps[l.NextBlink()-start] = true
	}
	assert.Greater(t, len(gaps), 1)
}

func TestBlinkOverridesEmotionChannels(t *testing.T) {
	l := newIdle(t, DefaultIdleConfig())
	l.TriggerBlink()
	l.Advance(DefaultIdleConfig().BlinkDuration / 2)

	v := Vector{}.Set(UpperLidRaise, 0.9).Set(LidTighten, 0.4)
	f := l.Compose(v)

	assert.Equal(t, 1.0, f.Get(EyeBlinkLeft))
	assert.Equal(t, 1.0, f.Get(EyeBlinkRight))
	assert.Equal(t, 0.9, f.Get(UpperLidRaise))
	assert.Equal(t, 0.4, f.Get(LidTighten))
}

func TestTriggerBlinkWhileOpeningReverses(t *testing.T) {
	cfg := DefaultIdleConfig()
	l := newIdle(t, cfg)
	l.TriggerBlink()
	l.Advance(cfg.BlinkDuration/2 + cfg.BlinkDuration/8)
	require.Equal(t, BlinkOpening, l.Phase())
	before := l.BlinkValue()

	l.TriggerBlink()
	assert.Equal(t, BlinkClosing, l.Phase())
	assert.InDelta(t, before, l.BlinkValue(), 1e-9)
}

func TestBreathingIsAdditive(t *testing.T) {
	cfg := DefaultIdleConfig()
	l := newIdle(t, cfg)

	// quarter period puts the sine at its peak
	quarter := time.Duration(float64(time.Second) / cfg.BreathingSpeed / 4)
	l.Advance(quarter)

	f := l.Compose(Vector{}.Set(JawDrop, 0.4))
	breath := BreathValue(quarter.Seconds(), cfg.BreathingSpeed, cfg.BreathingAmplitude)

	assert.InDelta(t, cfg.BreathingAmplitude, breath, 1e-9)
	assert.InDelta(t, 0.4+breath, f.Get(JawDrop), 1e-12)
	assert.Greater(t, f.Get(JawDrop), math.Max(0.4, breath))
}

func TestBreathingDisabled(t *testing.T) {
	cfg := DefaultIdleConfig()
	cfg.Breathing = false
	l := newIdle(t, cfg)
	l.Advance(time.Second)

	assert.Equal(t, 0.4, l.Compose(Vector{}.Set(JawDrop, 0.4)).Get(JawDrop))
}

func TestResetBreathing(t *testing.T) {
	l := newIdle(t, DefaultIdleConfig())
	l.Advance(700 * time.Millisecond)
	l.ResetBreathing()
	assert.InDelta(t, DefaultIdleConfig().BreathingAmplitude/2, l.Breath(), 1e-12)
}

func TestMicroMotionOnlyWhenEnabled(t *testing.T) {
	l := newIdle(t, DefaultIdleConfig())
	l.Advance(1234 * time.Millisecond)
	f := l.Compose(Vector{})
	assert.Zero(t, f.Get(InnerBrowRaise))
	assert.Zero(t, f.Get(CheekRaise))

	cfg := DefaultIdleConfig()
	cfg.MicroMotionAmplitude = 0.05
	l = newIdle(t, cfg)
	moved := false
	for i := 0; i < 50; i++ {
		l.Advance(37 * time.Millisecond)
		if l.Compose(Vector{}).Get(InnerBrowRaise) != 0 {
			moved = true
		}
	}
	assert.True(t, moved)
}

func TestIdleConfigValidate(t *testing.T) {
	mutate := []func(*IdleConfig){
		func(c *IdleConfig) { c.BlinkInterval = 0 },
		func(c *IdleConfig) { c.BlinkDuration = -time.Millisecond },
		func(c *IdleConfig) { c.BreathingSpeed = -1 },
		func(c *IdleConfig) { c.BreathingAmplitude = math.NaN() },
		func(c *IdleConfig) { c.MicroMotionAmplitude = 0.1; c.MicroMotionRate = 0 },
	}
	for i, m := range mutate {
		cfg := DefaultIdleConfig()
		m(&cfg)
		_, err := NewIdleLayer(cfg, nil)
		assert.ErrorIs(t, err, ErrConfiguration, "case %d", i)
	}
}
