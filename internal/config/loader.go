package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Loader reads a Config from an optional YAML file layered over defaults,
// with CORTEXFACE_* environment overrides. Nested keys map to env names
// with dots replaced by underscores: CORTEXFACE_FACE_TOP_K.
type Loader struct {
	v      *viper.Viper
	path   string
	logger zerolog.Logger

	mu      sync.Mutex
	current *Config
}

// NewLoader uses path when set, else config.yaml in ~/.cortexface or the
// working directory.
func NewLoader(path string, logger zerolog.Logger) *Loader {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:      v,
		path:   path,
		logger: logger.With().Str("component", "config").Logger(),
	}
}

// Load reads and validates the configuration. A missing file is not an
// error when no explicit path was given.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		lg := l.log()
		lg.Debug().Msg("No config file found, using defaults")
	} else {
		lg := l.log()
		lg.Info().Str("file", l.v.ConfigFileUsed()).Msg("Config loaded")
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) decode() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetLogger replaces the logger used for reload reports.
func (l *Loader) SetLogger(logger zerolog.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = logger.With().Str("component", "config").Logger()
}

func (l *Loader) log() zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logger
}

// Current is the last successfully loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// File is the config file in use, empty when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch re-reads the file on every write and hands each valid result to
// onChange. Invalid edits are logged and ignored.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			lg := l.log()
			lg.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid config change")
			return
		}
		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()

		lg := l.log()
		lg.Info().Str("file", e.Name).Msg("Config reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Load is a shortcut for NewLoader(path).Load().
func Load(path string, logger zerolog.Logger) (*Config, error) {
	return NewLoader(path, logger).Load()
}

// Save writes cfg as YAML to path, creating its directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	v := viper.New()
	for key, value := range flatten(cfg) {
		v.Set(key, value)
	}
	return v.WriteConfigAs(path)
}

func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range flatten(cfg) {
		v.SetDefault(key, value)
	}
}

// flatten lists every setting by its dotted viper key.
func flatten(c *Config) map[string]any {
	return map[string]any{
		"face.count":               c.Face.Count,
		"face.transition_duration": c.Face.TransitionDuration.String(),
		"face.easing":              c.Face.Easing,
		"face.top_k":               c.Face.TopK,
		"face.intensity_scale":     c.Face.IntensityScale,
		"face.floor":               c.Face.Floor,

		"idle.blink_interval":         c.Idle.BlinkInterval.String(),
		"idle.blink_duration":         c.Idle.BlinkDuration.String(),
		"idle.breathing":              c.Idle.Breathing,
		"idle.breathing_speed":        c.Idle.BreathingSpeed,
		"idle.breathing_amplitude":    c.Idle.BreathingAmplitude,
		"idle.micro_motion_amplitude": c.Idle.MicroMotionAmplitude,
		"idle.micro_motion_rate":      c.Idle.MicroMotionRate,

		"rig.source":  c.Rig.Source,
		"rig.path":    c.Rig.Path,
		"rig.mesh":    c.Rig.Mesh,
		"rig.profile": c.Rig.Profile,

		"feed.poll.enabled":   c.Feed.Poll.Enabled,
		"feed.poll.url":       c.Feed.Poll.URL,
		"feed.poll.interval":  c.Feed.Poll.Interval.String(),
		"feed.poll.timeout":   c.Feed.Poll.Timeout.String(),
		"feed.server.enabled": c.Feed.Server.Enabled,
		"feed.server.addr":    c.Feed.Server.Addr,
		"feed.stream.enabled": c.Feed.Stream.Enabled,
		"feed.stream.url":     c.Feed.Stream.URL,

		"driver.frame_rate": c.Driver.FrameRate,
		"driver.max_delta":  c.Driver.MaxDelta.String(),

		"logging.level":   c.Logging.Level,
		"logging.console": c.Logging.Console,
		"logging.file":    c.Logging.File,

		"metrics.enabled": c.Metrics.Enabled,
		"metrics.addr":    c.Metrics.Addr,
		"metrics.path":    c.Metrics.Path,
	}
}
