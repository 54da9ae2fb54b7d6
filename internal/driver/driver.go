// Package driver runs the frame loop that ticks every face.
package driver

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/normanking/cortexface/internal/face"
	"github.com/normanking/cortexface/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	DefaultFrameRate = 60
	DefaultMaxDelta  = 100 * time.Millisecond
)

// Ticker is one independently animated face.
type Ticker interface {
	Tick(dt time.Duration) face.Frame
	State() face.TransitionState
}

type Config struct {
	FrameRate int
	MaxDelta  time.Duration
}

func DefaultConfig() Config {
	return Config{FrameRate: DefaultFrameRate, MaxDelta: DefaultMaxDelta}
}

// Driver ticks its faces at a fixed rate with the measured frame delta. A
// long stall is clamped to MaxDelta so faces never jump.
type Driver struct {
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu    sync.RWMutex
	faces []Ticker

	frames     atomic.Uint64
	fpsFrames  int
	fpsStarted time.Time
}

type Option func(*Driver)

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Driver, error) {
	if cfg.FrameRate <= 0 {
		return nil, &face.ConfigError{Field: "frame_rate", Reason: fmt.Sprintf("must be positive, got %d", cfg.FrameRate)}
	}
	if cfg.MaxDelta <= 0 {
		return nil, &face.ConfigError{Field: "max_delta", Reason: fmt.Sprintf("must be positive, got %s", cfg.MaxDelta)}
	}
	d := &Driver{
		cfg:    cfg,
		logger: logger.With().Str("component", "driver").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Driver) Add(t Ticker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces = append(d.faces, t)
}

func (d *Driver) Remove(t Ticker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces = slices.DeleteFunc(d.faces, func(x Ticker) bool { return x == t })
}

func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.faces)
}

// Clamp bounds a measured frame delta to [0, MaxDelta].
func (d *Driver) Clamp(dt time.Duration) time.Duration {
	if dt < 0 {
		return 0
	}
	if dt > d.cfg.MaxDelta {
		return d.cfg.MaxDelta
	}
	return dt
}

// Step ticks every face once with the clamped dt.
func (d *Driver) Step(dt time.Duration) {
	dt = d.Clamp(dt)

	d.mu.RLock()
	faces := slices.Clone(d.faces)
	d.mu.RUnlock()

	start := d.now()
	transitioning := 0
	for _, f := range faces {
		f.Tick(dt)
		if f.State() == face.StateTransitioning {
			transitioning++
		}
	}
	d.metrics.Frame(len(faces), transitioning, d.now().Sub(start))
	d.frames.Add(1)
}

// Frames is the number of steps taken.
func (d *Driver) Frames() uint64 { return d.frames.Load() }

// Run ticks until ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(d.cfg.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := d.now()
	d.fpsStarted = last
	d.logger.Info().Int("fps", d.cfg.FrameRate).Dur("max_delta", d.cfg.MaxDelta).Msg("Frame loop started")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Uint64("frames", d.frames.Load()).Msg("Frame loop stopped")
			return nil
		case <-ticker.C:
			now := d.now()
			dt := now.Sub(last)
			last = now
			if dt > d.cfg.MaxDelta {
				d.logger.Debug().Dur("dt", dt).Msg("Frame stalled, clamping delta")
			}
			d.Step(dt)
			d.reportFPS(now)
		}
	}
}

func (d *Driver) reportFPS(now time.Time) {
	d.fpsFrames++
	if elapsed := now.Sub(d.fpsStarted); elapsed >= 10*time.Second {
		d.logger.Debug().Float64("fps", float64(d.fpsFrames)/elapsed.Seconds()).Int("faces", d.Len()).Msg("Frame rate")
		d.fpsFrames = 0
		d.fpsStarted = now
	}
}
