// Package protocol decodes the JSON messages that drive a face and
// dispatches them to it.
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/normanking/cortexface/internal/face"
)

// EmotionPayload is the emotion state published by the sentiment backend.
// The six primary scores are required; everything else is carried through
// untouched.
type EmotionPayload struct {
	Happiness *float64 `json:"happiness"`
	Sadness   *float64 `json:"sadness"`
	Anger     *float64 `json:"anger"`
	Fear      *float64 `json:"fear"`
	Surprise  *float64 `json:"surprise"`
	Disgust   *float64 `json:"disgust"`

	Confusion    *float64 `json:"confusion,omitempty"`
	Pride        *float64 `json:"pride,omitempty"`
	Loneliness   *float64 `json:"loneliness,omitempty"`
	Pain         *float64 `json:"pain,omitempty"`
	Contempt     *float64 `json:"contempt,omitempty"`
	Anticipation *float64 `json:"anticipation,omitempty"`
	Trust        *float64 `json:"trust,omitempty"`

	OverallSentiment *float64 `json:"overallSentiment,omitempty"`
	Intensity        *float64 `json:"intensity,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`

	// TransitionDuration in seconds; zero or absent selects the default.
	TransitionDuration float64 `json:"transitionDuration,omitempty"`
}

// Metadata is the passthrough part of an EmotionPayload.
type Metadata struct {
	Secondary        map[string]float64
	OverallSentiment float64
	Intensity        float64
	Timestamp        string
}

func (p *EmotionPayload) primary() [face.EmotionCount]*float64 {
	return [face.EmotionCount]*float64{
		face.Happiness: p.Happiness,
		face.Sadness:   p.Sadness,
		face.Anger:     p.Anger,
		face.Fear:      p.Fear,
		face.Surprise:  p.Surprise,
		face.Disgust:   p.Disgust,
	}
}

func (p *EmotionPayload) secondary() map[string]*float64 {
	return map[string]*float64{
		"confusion":    p.Confusion,
		"pride":        p.Pride,
		"loneliness":   p.Loneliness,
		"pain":         p.Pain,
		"contempt":     p.Contempt,
		"anticipation": p.Anticipation,
		"trust":        p.Trust,
	}
}

// Validate checks presence and ranges without touching any face.
func (p *EmotionPayload) Validate() error {
	for i, v := range p.primary() {
		name := face.Emotion(i).String()
		if v == nil {
			return invalid(name, "is required")
		}
		if err := checkUnit(name, *v); err != nil {
			return err
		}
	}
	for name, v := range p.secondary() {
		if v == nil {
			continue
		}
		if err := checkUnit(name, *v); err != nil {
			return err
		}
	}
	if p.OverallSentiment != nil {
		s := *p.OverallSentiment
		if !isFinite(s) || s < -1 || s > 1 {
			return invalid("overallSentiment", "must be in [-1,1], got %v", s)
		}
	}
	if p.Intensity != nil {
		if err := checkUnit("intensity", *p.Intensity); err != nil {
			return err
		}
	}
	return checkDuration(p.TransitionDuration)
}

// Emotions returns the primary scores. Call Validate first.
func (p *EmotionPayload) Emotions() face.EmotionVector {
	var v face.EmotionVector
	for i, x := range p.primary() {
		if x != nil {
			v[i] = *x
		}
	}
	return v
}

func (p *EmotionPayload) Duration() time.Duration {
	return seconds(p.TransitionDuration)
}

func (p *EmotionPayload) Metadata() Metadata {
	md := Metadata{Timestamp: p.Timestamp, Secondary: map[string]float64{}}
	for name, v := range p.secondary() {
		if v != nil {
			md.Secondary[name] = *v
		}
	}
	if p.OverallSentiment != nil {
		md.OverallSentiment = *p.OverallSentiment
	}
	if p.Intensity != nil {
		md.Intensity = *p.Intensity
	}
	return md
}

// DecodeEmotion parses and validates an emotion payload.
func DecodeEmotion(data []byte) (*EmotionPayload, error) {
	var p EmotionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, invalid("", "malformed emotion payload: %v", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ActionUnitPayload sets the action units directly.
type ActionUnitPayload struct {
	ActionUnits        map[string]float64 `json:"actionUnits"`
	TransitionDuration float64            `json:"transitionDuration,omitempty"`
}

func (p *ActionUnitPayload) Vector() (face.Vector, error) {
	if p.ActionUnits == nil {
		return face.Vector{}, invalid("actionUnits", "is required")
	}
	return face.VectorFromMap(p.ActionUnits)
}

func (p *ActionUnitPayload) Duration() time.Duration {
	return seconds(p.TransitionDuration)
}

// DecodeActionUnits parses an action unit payload and returns the validated
// vector with its requested duration.
func DecodeActionUnits(data []byte) (face.Vector, time.Duration, error) {
	var p ActionUnitPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return face.Vector{}, 0, invalid("", "malformed action unit payload: %v", err)
	}
	if err := checkDuration(p.TransitionDuration); err != nil {
		return face.Vector{}, 0, err
	}
	v, err := p.Vector()
	if err != nil {
		return face.Vector{}, 0, err
	}
	return v, p.Duration(), nil
}

func checkUnit(name string, v float64) error {
	if !isFinite(v) || v < 0 || v > 1 {
		return invalid(name, "must be in [0,1], got %v", v)
	}
	return nil
}

// maxSeconds is the longest transition a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

func checkDuration(s float64) error {
	if !isFinite(s) {
		return invalid("transitionDuration", "must be finite")
	}
	if s >= maxSeconds {
		return invalid("transitionDuration", "must be below %.0f seconds, got %v", maxSeconds, s)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// seconds converts a wire duration; non-positive means default and maps to 0.
func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

func invalid(field, format string, args ...any) error {
	return &face.ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
