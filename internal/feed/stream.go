package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/normanking/cortexface/internal/bus"
	"github.com/normanking/cortexface/internal/face"
	"github.com/rs/zerolog"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Stream follows an upstream WebSocket that pushes envelopes, reconnecting
// with exponential backoff.
type Stream struct {
	url     string
	handler Dispatcher
	logger  zerolog.Logger
	opts    options
	dialer  *websocket.Dialer
}

func NewStream(url string, handler Dispatcher, logger zerolog.Logger, opts ...Option) *Stream {
	return &Stream{
		url:     url,
		handler: handler,
		logger:  logger.With().Str("component", "ws-stream").Str("url", url).Logger(),
		opts:    collect(opts),
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run keeps the stream connected until ctx is done.
func (s *Stream) Run(ctx context.Context) error {
	backoff := initialBackoff
	failures := 0

	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			backoff = initialBackoff
			failures = 0
		}
		if err != nil {
			failures++
			s.opts.metrics.FeedError("stream")
			if failures <= 3 {
				s.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("Upstream stream failed, reconnecting")
			} else {
				s.logger.Debug().Err(err).Int("failures", failures).Msg("Upstream stream still unavailable")
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// session runs one connection. connected reports whether the dial succeeded.
func (s *Stream) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	s.logger.Info().Msg("Upstream stream connected")
	s.opts.publish(bus.EventTypeFeedConnected, "stream", nil)
	defer s.opts.publish(bus.EventTypeFeedDisconnected, "stream", nil)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			conn.Close()
		case <-done:
		}
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return true, nil
			}
			return true, fmt.Errorf("read: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		if err := s.handler.Dispatch(data); err != nil && !errors.Is(err, face.ErrValidation) {
			s.logger.Warn().Err(err).Msg("Dispatch failed")
		}
	}
}
