package main

import (
	"fmt"
	"time"

	"github.com/normanking/cortexface/internal/config"
	"github.com/normanking/cortexface/internal/face"
	"github.com/normanking/cortexface/internal/rig"
	"github.com/rs/zerolog"
)

// stage is the set of faces one process animates. Every inbound update is
// fanned out to all of them; each keeps its own clock and blink jitter.
type stage struct {
	faces []*face.Face
	sinks []*rig.BlendshapeSink
}

func buildStage(cfg *config.Config, logger zerolog.Logger) (*stage, error) {
	fc, err := cfg.FaceSettings()
	if err != nil {
		return nil, err
	}
	src, err := cfg.AvatarSource()
	if err != nil {
		return nil, err
	}
	profile, err := cfg.RigProfile()
	if err != nil {
		return nil, err
	}

	s := &stage{}
	for i := 0; i < cfg.Face.Count; i++ {
		sink, err := rig.NewBlendshapeSink(src, profile, logger.With().Str("component", "rig").Logger())
		if err != nil {
			return nil, err
		}
		f, err := face.New(fc, sink, face.WithLogger(logger.With().Str("component", "face").Logger()))
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		s.faces = append(s.faces, f)
		s.sinks = append(s.sinks, sink)
	}
	return s, nil
}

func (s *stage) SetEmotions(e face.EmotionVector, d time.Duration) {
	for _, f := range s.faces {
		f.SetEmotions(e, d)
	}
}

func (s *stage) PatchEmotion(e face.Emotion, value float64, d time.Duration) {
	for _, f := range s.faces {
		f.PatchEmotion(e, value, d)
	}
}

func (s *stage) SetActionUnits(v face.Vector, d time.Duration) {
	for _, f := range s.faces {
		f.SetActionUnits(v, d)
	}
}

func (s *stage) TriggerBlink() {
	for _, f := range s.faces {
		f.TriggerBlink()
	}
}

// reconfigure applies settings that are safe to change while running.
func (s *stage) reconfigure(cfg *config.Config) error {
	p, err := cfg.Prioritizer()
	if err != nil {
		return err
	}
	for _, f := range s.faces {
		if err := f.SetPrioritizer(p, cfg.Face.TopK); err != nil {
			return err
		}
	}
	return nil
}
