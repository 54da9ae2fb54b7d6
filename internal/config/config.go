// Package config loads cortexface settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/normanking/cortexface/internal/driver"
	"github.com/normanking/cortexface/internal/face"
	"github.com/normanking/cortexface/internal/feed"
	"github.com/normanking/cortexface/internal/rig"
)

const EnvPrefix = "CORTEXFACE"

type Config struct {
	Face    FaceConfig    `mapstructure:"face"`
	Idle    IdleConfig    `mapstructure:"idle"`
	Rig     RigConfig     `mapstructure:"rig"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Driver  DriverConfig  `mapstructure:"driver"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type FaceConfig struct {
	Count              int           `mapstructure:"count"`
	TransitionDuration time.Duration `mapstructure:"transition_duration"`
	Easing             string        `mapstructure:"easing"`
	TopK               int           `mapstructure:"top_k"`
	IntensityScale     float64       `mapstructure:"intensity_scale"`
	Floor              float64       `mapstructure:"floor"`
}

type IdleConfig struct {
	BlinkInterval        time.Duration `mapstructure:"blink_interval"`
	BlinkDuration        time.Duration `mapstructure:"blink_duration"`
	Breathing            bool          `mapstructure:"breathing"`
	BreathingSpeed       float64       `mapstructure:"breathing_speed"`
	BreathingAmplitude   float64       `mapstructure:"breathing_amplitude"`
	MicroMotionAmplitude float64       `mapstructure:"micro_motion_amplitude"`
	MicroMotionRate      float64       `mapstructure:"micro_motion_rate"`
}

type RigConfig struct {
	Source  string `mapstructure:"source"` // procedural or gltf
	Path    string `mapstructure:"path"`
	Mesh    string `mapstructure:"mesh"`
	Profile string `mapstructure:"profile"`
}

type FeedConfig struct {
	Poll   PollConfig   `mapstructure:"poll"`
	Server ServerConfig `mapstructure:"server"`
	Stream StreamConfig `mapstructure:"stream"`
}

type PollConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type StreamConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type DriverConfig struct {
	FrameRate int           `mapstructure:"frame_rate"`
	MaxDelta  time.Duration `mapstructure:"max_delta"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    string `mapstructure:"file"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

func DefaultConfig() *Config {
	fc := face.DefaultConfig()
	pc := feed.DefaultPollerConfig()
	dc := driver.DefaultConfig()

	return &Config{
		Face: FaceConfig{
			Count:              1,
			TransitionDuration: fc.TransitionDuration,
			Easing:             "ease_in_out",
			TopK:               fc.TopK,
			IntensityScale:     fc.IntensityScale,
			Floor:              fc.Floor,
		},
		Idle: IdleConfig{
			BlinkInterval:        fc.Idle.BlinkInterval,
			BlinkDuration:        fc.Idle.BlinkDuration,
			Breathing:            fc.Idle.Breathing,
			BreathingSpeed:       fc.Idle.BreathingSpeed,
			BreathingAmplitude:   fc.Idle.BreathingAmplitude,
			MicroMotionAmplitude: fc.Idle.MicroMotionAmplitude,
			MicroMotionRate:      fc.Idle.MicroMotionRate,
		},
		Rig: RigConfig{
			Source: "procedural",
		},
		Feed: FeedConfig{
			Poll: PollConfig{
				Enabled:  true,
				URL:      pc.URL,
				Interval: pc.Interval,
				Timeout:  pc.Timeout,
			},
			Server: ServerConfig{
				Enabled: true,
				Addr:    feed.DefaultServerAddr,
			},
		},
		Driver: DriverConfig{
			FrameRate: dc.FrameRate,
			MaxDelta:  dc.MaxDelta,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9464",
			Path:    "/metrics",
		},
	}
}

// FaceSettings converts the face and idle sections into a face.Config.
func (c *Config) FaceSettings() (face.Config, error) {
	curve, err := face.CurveByName(c.Face.Easing)
	if err != nil {
		return face.Config{}, err
	}
	return face.Config{
		TransitionDuration: c.Face.TransitionDuration,
		Curve:              curve,
		TopK:               c.Face.TopK,
		IntensityScale:     c.Face.IntensityScale,
		Floor:              c.Face.Floor,
		Idle: face.IdleConfig{
			BlinkInterval:        c.Idle.BlinkInterval,
			BlinkDuration:        c.Idle.BlinkDuration,
			Breathing:            c.Idle.Breathing,
			BreathingSpeed:       c.Idle.BreathingSpeed,
			BreathingAmplitude:   c.Idle.BreathingAmplitude,
			MicroMotionAmplitude: c.Idle.MicroMotionAmplitude,
			MicroMotionRate:      c.Idle.MicroMotionRate,
		},
	}, nil
}

// Prioritizer builds the prioritizer described by the face section.
func (c *Config) Prioritizer() (*face.Prioritizer, error) {
	return face.NewPrioritizer(c.Face.IntensityScale, c.Face.Floor)
}

func (c *Config) PollerConfig() feed.PollerConfig {
	return feed.PollerConfig{URL: c.Feed.Poll.URL, Interval: c.Feed.Poll.Interval, Timeout: c.Feed.Poll.Timeout}
}

func (c *Config) DriverConfig() driver.Config {
	return driver.Config{FrameRate: c.Driver.FrameRate, MaxDelta: c.Driver.MaxDelta}
}

// AvatarSource resolves the rig section.
func (c *Config) AvatarSource() (rig.AvatarSource, error) {
	switch strings.ToLower(c.Rig.Source) {
	case "", "procedural":
		return rig.Procedural{}, nil
	case "gltf", "glb":
		return rig.Loaded{Path: c.Rig.Path, Mesh: c.Rig.Mesh}, nil
	default:
		return nil, misconfigured("rig.source", "unknown source %q", c.Rig.Source)
	}
}

// RigProfile loads the configured profile or the default one.
func (c *Config) RigProfile() (rig.Profile, error) {
	if c.Rig.Profile == "" {
		return rig.DefaultProfile(), nil
	}
	return rig.LoadProfile(c.Rig.Profile)
}

// Validate reports the first nonsensical setting.
func (c *Config) Validate() error {
	if c.Face.Count <= 0 {
		return misconfigured("face.count", "must be positive, got %d", c.Face.Count)
	}
	if c.Face.TopK <= 0 {
		return misconfigured("face.top_k", "must be positive, got %d", c.Face.TopK)
	}
	if c.Face.TransitionDuration < 0 {
		return misconfigured("face.transition_duration", "must not be negative, got %s", c.Face.TransitionDuration)
	}
	if _, err := c.Prioritizer(); err != nil {
		return err
	}
	fc, err := c.FaceSettings()
	if err != nil {
		return err
	}
	if err := fc.Idle.Validate(); err != nil {
		return err
	}
	if _, err := c.AvatarSource(); err != nil {
		return err
	}
	if src := strings.ToLower(c.Rig.Source); (src == "gltf" || src == "glb") && c.Rig.Path == "" {
		return misconfigured("rig.path", "is required for source %q", c.Rig.Source)
	}
	if c.Feed.Poll.Enabled {
		if c.Feed.Poll.URL == "" {
			return misconfigured("feed.poll.url", "is required when polling is enabled")
		}
		if c.Feed.Poll.Interval <= 0 {
			return misconfigured("feed.poll.interval", "must be positive, got %s", c.Feed.Poll.Interval)
		}
	}
	if c.Feed.Stream.Enabled && c.Feed.Stream.URL == "" {
		return misconfigured("feed.stream.url", "is required when the stream is enabled")
	}
	if c.Driver.FrameRate <= 0 {
		return misconfigured("driver.frame_rate", "must be positive, got %d", c.Driver.FrameRate)
	}
	if c.Driver.MaxDelta <= 0 {
		return misconfigured("driver.max_delta", "must be positive, got %s", c.Driver.MaxDelta)
	}
	return nil
}

// DefaultDir is ~/.cortexface.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cortexface"), nil
}

func misconfigured(field, format string, args ...any) error {
	return &face.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
