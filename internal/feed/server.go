package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/normanking/cortexface/internal/bus"
	"github.com/normanking/cortexface/internal/protocol"
	"github.com/rs/zerolog"
)

const (
	DefaultServerAddr = ":8765"

	writeWait    = 5 * time.Second
	maxFrameSize = 64 << 10
)

// Server accepts WebSocket clients on /ws. Every text frame is an envelope
// dispatched to the handler; rejected frames are answered with an error
// reply and the connection stays open.
type Server struct {
	addr     string
	handler  Dispatcher
	logger   zerolog.Logger
	opts     options
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	clients atomic.Int64
}

func NewServer(addr string, handler Dispatcher, logger zerolog.Logger, opts ...Option) *Server {
	if addr == "" {
		addr = DefaultServerAddr
	}
	s := &Server{
		addr:    addr,
		handler: handler,
		logger:  logger.With().Str("component", "ws-server").Logger(),
		opts:    collect(opts),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/ws", s.ServeWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s
}

// Handle mounts an extra handler, such as metrics, on the server mux.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

func (s *Server) Handler() http.Handler { return s.mux }

// Clients is the number of connected clients.
func (s *Server) Clients() int64 { return s.clients.Load() }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("WebSocket feed listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", s.addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.opts.metrics.FeedError("server")
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	remote := r.RemoteAddr
	s.clients.Add(1)
	defer s.clients.Add(-1)

	log := s.logger.With().Str("remote", remote).Logger()
	log.Info().Msg("Client connected")
	s.opts.publish(bus.EventTypeFeedConnected, "server", map[string]any{"remote": remote})
	defer s.opts.publish(bus.EventTypeFeedDisconnected, "server", map[string]any{"remote": remote})

	if err := s.reply(conn, protocol.ReadyReply()); err != nil {
		log.Warn().Err(err).Msg("Failed to send ready")
		return
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.opts.metrics.FeedError("server")
				log.Warn().Err(err).Msg("Client read failed")
			} else {
				log.Info().Msg("Client disconnected")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		if err := s.handler.Dispatch(data); err != nil {
			if werr := s.reply(conn, protocol.ErrorReply(err)); werr != nil {
				log.Warn().Err(werr).Msg("Failed to send error reply")
				return
			}
		}
	}
}

func (s *Server) reply(conn *websocket.Conn, r protocol.Reply) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(r)
}
