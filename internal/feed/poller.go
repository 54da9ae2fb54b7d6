package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/normanking/cortexface/internal/bus"
	"github.com/normanking/cortexface/internal/face"
	"github.com/rs/zerolog"
)

const (
	DefaultPollURL      = "http://localhost:8000/api/v1/sentiment/current"
	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 5 * time.Second

	maxPollBody = 1 << 20
)

type PollerConfig struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		URL:      DefaultPollURL,
		Interval: DefaultPollInterval,
		Timeout:  DefaultPollTimeout,
	}
}

// Poller fetches the current emotion state from an HTTP backend on a fixed
// interval. A failed fetch keeps the face on its previous target.
type Poller struct {
	cfg     PollerConfig
	handler EmotionHandler
	client  *http.Client
	logger  zerolog.Logger
	opts    options

	failures int
}

func NewPoller(cfg PollerConfig, handler EmotionHandler, logger zerolog.Logger, opts ...Option) (*Poller, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("poller: url is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poller: interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPollTimeout
	}
	return &Poller{
		cfg:     cfg,
		handler: handler,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With().Str("component", "poller").Str("url", cfg.URL).Logger(),
		opts:    collect(opts),
	}, nil
}

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.cfg.Interval).Msg("Polling sentiment backend")
	for {
		p.pollOnce(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	err := p.Poll(ctx)
	switch {
	case err == nil:
		if p.failures > 0 {
			p.logger.Info().Int("failures", p.failures).Msg("Sentiment backend reachable again")
			p.opts.publish(bus.EventTypeFeedConnected, "poller", nil)
		}
		p.failures = 0
	case errors.Is(err, context.Canceled):
	case errors.Is(err, face.ErrValidation):
		// the handler already counted and logged the rejection
	default:
		p.failures++
		p.opts.metrics.FeedError("poller")
		if p.failures == 1 {
			p.logger.Warn().Err(err).Msg("Sentiment poll failed, keeping previous expression")
			p.opts.publish(bus.EventTypeFeedError, "poller", map[string]any{"error": err.Error()})
		} else {
			p.logger.Debug().Err(err).Int("failures", p.failures).Msg("Sentiment backend still unavailable")
		}
	}
}

// Poll performs one fetch and hands a successful body to the handler.
func (p *Poller) Poll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch sentiment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch sentiment: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPollBody))
	if err != nil {
		return fmt.Errorf("read sentiment: %w", err)
	}
	return p.handler.HandleEmotion(body)
}
