package face

import (
	"math"
	"slices"
)

const (
	DefaultTopK           = 2
	DefaultIntensityScale = 1.0
	DefaultFloor          = 0.02
)

// Prioritizer reduces an emotion vector to its strongest entries so that
// many weak emotions do not blend into an unreadable face.
type Prioritizer struct {
	scale float64
	floor float64
}

// NewPrioritizer validates scale (> 0) and floor (in [0,1)).
func NewPrioritizer(scale, floor float64) (*Prioritizer, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, misconfigured("intensity_scale", "must be positive and finite, got %v", scale)
	}
	if !(floor >= 0 && floor < 1) {
		return nil, misconfigured("floor", "must be in [0,1), got %v", floor)
	}
	return &Prioritizer{scale: scale, floor: floor}, nil
}

func (p *Prioritizer) Scale() float64 { return p.scale }
func (p *Prioritizer) Floor() float64 { return p.floor }

// Select keeps the k largest emotions at or above the floor, scales them and
// zeroes everything else. Equal magnitudes keep enumeration order.
func (p *Prioritizer) Select(e EmotionVector, k int) EmotionVector {
	var out EmotionVector
	if k <= 0 {
		return out
	}

	candidates := make([]Emotion, 0, EmotionCount)
	for i, x := range e {
		if x > 0 && x >= p.floor {
			candidates = append(candidates, Emotion(i))
		}
	}

	slices.SortStableFunc(candidates, func(a, b Emotion) int {
		switch {
		case e[a] > e[b]:
			return -1
		case e[a] < e[b]:
			return 1
		default:
			return 0
		}
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	for _, em := range candidates {
		out[em] = e[em] * p.scale
	}
	return out
}
