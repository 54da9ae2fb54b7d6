package face

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, curve Curve) *TransitionEngine {
	t.Helper()
	e, err := NewTransitionEngine(DefaultTransitionDuration, curve)
	require.NoError(t, err)
	return e
}

func smileTarget(v float64) Vector {
	return Vector{}.Set(LipCornerPull, v).Set(CheekRaise, v/2)
}

func TestTransitionReachesTargetExactly(t *testing.T) {
	for _, d := range []time.Duration{
		time.Millisecond,
		100 * time.Millisecond,
		333 * time.Millisecond,
		time.Second + 7*time.Millisecond,
	} {
		e := newEngine(t, EaseInOut)
		target := smileTarget(0.7)
		e.SetTarget(target, d)

		steps := 7
		step := d / time.Duration(steps)
		for i := 0; i < steps-1; i++ {
			e.Advance(step)
		}
		got := e.Advance(d - step*time.Duration(steps-1))

		assert.Equal(t, target, got, "duration %s", d)
		assert.Equal(t, StateIdle, e.State())
	}
}

func TestTransitionSpringSnapsToTarget(t *testing.T) {
	e := newEngine(t, Spring)
	target := smileTarget(0.4)
	e.SetTarget(target, 200*time.Millisecond)

	e.Advance(150 * time.Millisecond)
	assert.Equal(t, target, e.Advance(50*time.Millisecond))
}

func TestTransitionIdleAdvanceIsNoop(t *testing.T) {
	e := newEngine(t, EaseInOut)
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, Vector{}, e.Advance(time.Second))
}

func TestTransitionNonPositiveDurationSnaps(t *testing.T) {
	e := newEngine(t, EaseInOut)
	target := smileTarget(0.9)

	e.SetTarget(target, 0)
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, target, e.Current())

	e.SetTarget(Vector{}, -time.Second)
	assert.Equal(t, Vector{}, e.Current())
}

func TestTransitionMidpointUsesCurve(t *testing.T) {
	e := newEngine(t, EaseInOut)
	e.SetTarget(smileTarget(1), time.Second)

	got := e.Advance(250 * time.Millisecond)
	assert.InDelta(t, EaseInOut(0.25), got.Get(LipCornerPull), 1e-12)
	assert.Equal(t, StateTransitioning, e.State())
	assert.InDelta(t, 0.25, e.Progress(), 1e-12)
}

func TestTransitionRetargetIsContinuous(t *testing.T) {
	e := newEngine(t, EaseInOut)
	e.SetTarget(smileTarget(1), time.Second)
	before := e.Advance(400 * time.Millisecond)

	first := e.Token()
	e.SetTarget(Vector{}.Set(BrowLower, 0.8), time.Second)
	assert.Greater(t, e.Token(), first)

	assert.Equal(t, before, e.Current(), "retarget must not move current")
	assert.Equal(t, before, e.Advance(0), "zero dt right after retarget stays at the old value")

	next := e.Advance(time.Millisecond)
	assert.InDelta(t, before.Get(LipCornerPull), next.Get(LipCornerPull), 1e-3)
	assert.Less(t, next.Get(LipCornerPull), before.Get(LipCornerPull))
}

func TestTransitionStaysConvexBetweenStartAndTarget(t *testing.T) {
	e := newEngine(t, EaseInOut)
	e.SetTarget(smileTarget(0.6), 300*time.Millisecond)
	start := e.Advance(100 * time.Millisecond)

	target := Vector{}.Set(LipCornerPull, 0.1).Set(BrowLower, 0.5)
	e.SetTarget(target, 500*time.Millisecond)

	for i := 0; i < 10; i++ {
		cur := e.Advance(50 * time.Millisecond)
		for ch := range cur {
			lo, hi := start[ch], target[ch]
			if lo > hi {
				lo, hi = hi, lo
			}
			assert.GreaterOrEqual(t, cur[ch], lo-1e-12)
			assert.LessOrEqual(t, cur[ch], hi+1e-12)
		}
	}
	assert.Equal(t, target, e.Current())
}

func TestTransitionNegativeDtIgnored(t *testing.T) {
	e := newEngine(t, Linear)
	e.SetTarget(smileTarget(1), time.Second)
	e.Advance(500 * time.Millisecond)

	got := e.Advance(-time.Second)
	assert.InDelta(t, 0.5, got.Get(LipCornerPull), 1e-12)
}

func TestNewTransitionEngineRejectsBadConfig(t *testing.T) {
	_, err := NewTransitionEngine(-time.Millisecond, EaseInOut)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewTransitionEngine(time.Second, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
