package rig

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/normanking/cortexface/internal/face"
	"github.com/rs/zerolog"
)

// BlendshapeSink routes face channels onto morph target weights. When several
// channels drive the same target within a frame the strongest wins. Weights
// become visible on Flush.
type BlendshapeSink struct {
	mu sync.RWMutex

	source  string
	names   []string
	index   map[string]int
	routes  [face.ChannelCount][]int
	missing []string

	pending []float32
	weights []float32
	frames  uint64
}

// NewBlendshapeSink resolves profile against the source's morph targets.
// Profile entries the avatar lacks are dropped and reported once.
func NewBlendshapeSink(src AvatarSource, profile Profile, log zerolog.Logger) (*BlendshapeSink, error) {
	names, err := src.MorphTargets()
	if err != nil {
		return nil, fmt.Errorf("load morph targets from %s: %w", src.Name(), err)
	}

	s := &BlendshapeSink{
		source:  src.Name(),
		names:   names,
		index:   make(map[string]int, len(names)),
		pending: make([]float32, len(names)),
		weights: make([]float32, len(names)),
	}
	for i, n := range names {
		if _, dup := s.index[n]; !dup {
			s.index[n] = i
		}
	}

	for _, ch := range face.Channels() {
		for _, target := range profile[ch] {
			idx, ok := s.index[target]
			if !ok {
				s.missing = append(s.missing, target)
				log.Warn().Str("source", s.source).Str("channel", ch.String()).Str("target", target).Msg("morph target not found, channel skipped")
				continue
			}
			s.routes[ch] = append(s.routes[ch], idx)
		}
	}

	log.Info().Str("source", s.source).Int("targets", len(names)).Int("missing", len(s.missing)).Msg("blendshape sink ready")
	return s, nil
}

func (s *BlendshapeSink) Apply(ch face.Channel, weight float64) {
	if ch < 0 || ch >= face.ChannelCount {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := float32(weight)
	for _, idx := range s.routes[ch] {
		if w > s.pending[idx] {
			s.pending[idx] = w
		}
	}
}

// Flush commits the accumulated frame and starts a new one.
func (s *BlendshapeSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.pending {
		s.weights[i] = mgl32.Clamp(w, 0, 1)
		s.pending[i] = 0
	}
	s.frames++
}

// Weights returns a copy of the committed weights in morph target order.
func (s *BlendshapeSink) Weights() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float32, len(s.weights))
	copy(out, s.weights)
	return out
}

func (s *BlendshapeSink) Weight(target string) (float32, bool) {
	idx, ok := s.index[target]
	if !ok {
		return 0, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights[idx], true
}

func (s *BlendshapeSink) Names() []string {
	return append([]string(nil), s.names...)
}

// Resolved lists the morph targets each channel actually drives.
func (s *BlendshapeSink) Resolved() map[face.Channel][]string {
	out := make(map[face.Channel][]string)
	for ch, idxs := range s.routes {
		for _, idx := range idxs {
			out[face.Channel(ch)] = append(out[face.Channel(ch)], s.names[idx])
		}
	}
	return out
}

// Missing lists profile targets the avatar does not have.
func (s *BlendshapeSink) Missing() []string {
	return append([]string(nil), s.missing...)
}

func (s *BlendshapeSink) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}
