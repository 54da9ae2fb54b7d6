package rig

import (
	"fmt"
	"os"

	"github.com/normanking/cortexface/internal/face"
	"gopkg.in/yaml.v3"
)

// Profile maps each channel to the morph targets it drives.
type Profile map[face.Channel][]string

// DefaultProfile drives both sides of every bilateral ARKit shape.
func DefaultProfile() Profile {
	return Profile{
		face.InnerBrowRaise:   {"browInnerUp"},
		face.OuterBrowRaise:   {"browOuterUpLeft", "browOuterUpRight"},
		face.BrowLower:        {"browDownLeft", "browDownRight"},
		face.UpperLidRaise:    {"eyeWideLeft", "eyeWideRight"},
		face.CheekRaise:       {"cheekSquintLeft", "cheekSquintRight"},
		face.LidTighten:       {"eyeSquintLeft", "eyeSquintRight"},
		face.NoseWrinkle:      {"noseSneerLeft", "noseSneerRight"},
		face.UpperLipRaise:    {"mouthUpperUpLeft", "mouthUpperUpRight"},
		face.LipCornerPull:    {"mouthSmileLeft", "mouthSmileRight"},
		face.LipCornerDepress: {"mouthFrownLeft", "mouthFrownRight"},
		face.ChinRaise:        {"mouthShrugLower"},
		face.LipStretch:       {"mouthStretchLeft", "mouthStretchRight"},
		face.LipsPart:         {MouthOpen},
		face.JawDrop:          {"jawOpen"},
		face.MouthStretch:     {"mouthStretchLeft", "mouthStretchRight"},
		face.EyeBlinkLeft:     {"eyeBlinkLeft"},
		face.EyeBlinkRight:    {"eyeBlinkRight"},
	}
}

// ParseProfile reads a YAML document keyed by channel wire name:
//
//	jawDrop: [jawOpen]
//	lipCornerPull: [mouthSmileLeft, mouthSmileRight]
//
// Channels left out drive nothing.
func ParseProfile(data []byte) (Profile, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	p := make(Profile, len(raw))
	for name, targets := range raw {
		ch, ok := face.ParseChannel(name)
		if !ok {
			return nil, &face.ConfigError{Field: "profile", Reason: fmt.Sprintf("unknown channel %q", name)}
		}
		p[ch] = targets
	}
	return p, nil
}

func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// Marshal renders p in the format ParseProfile reads.
func (p Profile) Marshal() ([]byte, error) {
	raw := make(map[string][]string, len(p))
	for ch, targets := range p {
		raw[ch.String()] = targets
	}
	return yaml.Marshal(raw)
}
