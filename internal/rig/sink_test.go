package rig

import (
	"testing"
	"time"

	"github.com/normanking/cortexface/internal/face"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource []string

func (fixedSource) Name() string { return "fixed" }
func (f fixedSource) MorphTargets() ([]string, error) { return f, nil }

func TestSinkCommitsOnFlush(t *testing.T) {
	s, err := NewBlendshapeSink(Procedural{}, DefaultProfile(), zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, s.Missing())

	s.Apply(face.LipCornerPull, 0.7)
	w, ok := s.Weight("mouthSmileLeft")
	require.True(t, ok)
	assert.Zero(t, w, "not visible before flush")

	s.Flush()
	w, _ = s.Weight("mouthSmileLeft")
	assert.InDelta(t, 0.7, w, 1e-6)
	w, _ = s.Weight("mouthSmileRight")
	assert.InDelta(t, 0.7, w, 1e-6)
	assert.Equal(t, uint64(1), s.Frames())

	s.Flush()
	w, _ = s.Weight("mouthSmileLeft")
	assert.Zero(t, w, "each frame starts empty")
}

func TestSinkSharedTargetTakesMax(t *testing.T) {
	s, err := NewBlendshapeSink(Procedural{}, DefaultProfile(), zerolog.Nop())
	require.NoError(t, err)

	s.Apply(face.LipStretch, 0.3)
	s.Apply(face.MouthStretch, 0.6)
	s.Apply(face.LipStretch, 0.1)
	s.Flush()

	w, _ := s.Weight("mouthStretchLeft")
	assert.InDelta(t, 0.6, w, 1e-6)
}

func TestSinkClamps(t *testing.T) {
	s, err := NewBlendshapeSink(Procedural{}, DefaultProfile(), zerolog.Nop())
	require.NoError(t, err)

	s.Apply(face.JawDrop, 1.4)
	s.Apply(face.BrowLower, -0.5)
	s.Flush()

	w, _ := s.Weight("jawOpen")
	assert.Equal(t, float32(1), w)
	w, _ = s.Weight("browDownLeft")
	assert.Equal(t, float32(0), w)
}

func TestSinkSkipsMissingTargets(t *testing.T) {
	s, err := NewBlendshapeSink(fixedSource{"jawOpen", "eyeBlinkLeft"}, DefaultProfile(), zerolog.Nop())
	require.NoError(t, err)

	assert.Contains(t, s.Missing(), "mouthSmileLeft")
	assert.Equal(t, map[face.Channel][]string{
		face.JawDrop:      {"jawOpen"},
		face.EyeBlinkLeft: {"eyeBlinkLeft"},
	}, s.Resolved())

	assert.NotPanics(t, func() {
		s.Apply(face.LipCornerPull, 1)
		s.Apply(face.Channel(99), 1)
	})
	s.Apply(face.EyeBlinkLeft, 0.5)
	s.Flush()
	assert.Equal(t, []float32{0, 0.5}, s.Weights())

	_, ok := s.Weight("mouthSmileLeft")
	assert.False(t, ok)
}

func TestSinkDrivenByFace(t *testing.T) {
	s, err := NewBlendshapeSink(Procedural{}, DefaultProfile(), zerolog.Nop())
	require.NoError(t, err)

	cfg := face.DefaultConfig()
	cfg.Idle.Breathing = false
	f, err := face.New(cfg, s)
	require.NoError(t, err)

	f.SetActionUnits(face.Vector{}.Set(face.JawDrop, 0.5), time.Millisecond)
	f.Tick(time.Millisecond)

	w, _ := s.Weight("jawOpen")
	assert.InDelta(t, 0.5, w, 1e-6)
	assert.Equal(t, uint64(1), s.Frames())
}
