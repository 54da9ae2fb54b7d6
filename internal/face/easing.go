package face

import (
	"math"
	"strings"
)

// Curve shapes a linear progress t in [0,1] before channels are mixed.
type Curve func(t float64) float64

// Linear is the identity curve.
func Linear(t float64) float64 { return t }

// EaseInOut is the smoothstep curve 3t²-2t³: zero slope at both ends,
// monotonic on [0,1]. It is the default transition curve.
func EaseInOut(t float64) float64 {
	return t * t * (3 - 2*t)
}

func EaseInCubic(t float64) float64 {
	return t * t * t
}

func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Spring settles with a damped oscillation and overshoots the target on the
// way. Spring(1) is not exactly 1; the engine snaps to the target when the
// transition completes.
func Spring(t float64) float64 {
	const damping, frequency = 0.3, 8.0
	decay := math.Exp(-damping * t * frequency)
	oscillation := math.Cos(frequency * t * (1 - damping))
	return 1 - decay*oscillation
}

var curves = map[string]Curve{
	"linear":            Linear,
	"ease_in_out":       EaseInOut,
	"ease_in_cubic":     EaseInCubic,
	"ease_out_cubic":    EaseOutCubic,
	"ease_in_out_cubic": EaseInOutCubic,
	"spring":            Spring,
}

// CurveByName resolves a configured curve name. The empty name selects
// EaseInOut.
func CurveByName(name string) (Curve, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return EaseInOut, nil
	}
	c, ok := curves[name]
	if !ok {
		return nil, misconfigured("easing", "unknown curve %q", name)
	}
	return c, nil
}
