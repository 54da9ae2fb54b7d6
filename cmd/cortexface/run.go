package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/normanking/cortexface/internal/bus"
	"github.com/normanking/cortexface/internal/config"
	"github.com/normanking/cortexface/internal/driver"
	"github.com/normanking/cortexface/internal/feed"
	"github.com/normanking/cortexface/internal/metrics"
	"github.com/normanking/cortexface/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the feeds and the frame loop",
		Long:  "Poll the sentiment backend, accept WebSocket clients and animate the configured faces until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, loader, cfg, logger.Zerolog(), !noWatch)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the config file on change")
	return cmd
}

func run(ctx context.Context, loader *config.Loader, cfg *config.Config, logger zerolog.Logger, watch bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	events := bus.NewEventBus()
	logEvents(events, logger)

	st, err := buildStage(cfg, logger)
	if err != nil {
		return err
	}

	handler := protocol.NewHandler(st, logger, protocol.WithMetrics(m), protocol.WithEventBus(events))

	drv, err := driver.New(cfg.DriverConfig(), logger, driver.WithMetrics(m))
	if err != nil {
		return err
	}
	for _, f := range st.faces {
		drv.Add(f)
		logger.Info().Str("face", f.ID().String()).Msg("Face ready")
	}

	if watch && loader.File() != "" {
		loader.Watch(func(next *config.Config) {
			if err := st.reconfigure(next); err != nil {
				logger.Warn().Err(err).Msg("Config change not applied")
				return
			}
			events.Publish(bus.Event{Type: bus.EventTypeConfigReloaded, Data: map[string]any{"top_k": next.Face.TopK}})
		})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return drv.Run(ctx) })

	opts := []feed.Option{feed.WithMetrics(m), feed.WithEventBus(events)}
	if cfg.Feed.Poll.Enabled {
		poller, err := feed.NewPoller(cfg.PollerConfig(), handler, logger, opts...)
		if err != nil {
			return err
		}
		g.Go(func() error { return poller.Run(ctx) })
	}
	if cfg.Feed.Stream.Enabled {
		stream := feed.NewStream(cfg.Feed.Stream.URL, handler, logger, opts...)
		g.Go(func() error { return stream.Run(ctx) })
	}
	if cfg.Feed.Server.Enabled {
		server := feed.NewServer(cfg.Feed.Server.Addr, handler, logger, opts...)
		g.Go(func() error { return server.Run(ctx) })
	}
	if cfg.Metrics.Enabled {
		g.Go(func() error { return serveMetrics(ctx, cfg.Metrics, reg, logger) })
	}

	err = g.Wait()
	logger.Info().Msg("Shut down")
	return err
}

func serveMetrics(ctx context.Context, cfg config.MetricsConfig, reg *prometheus.Registry, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("path", cfg.Path).Msg("Metrics listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func logEvents(events *bus.EventBus, logger zerolog.Logger) {
	log := logger.With().Str("component", "events").Logger()
	events.SubscribeMultiple([]bus.EventType{
		bus.EventTypeFeedConnected,
		bus.EventTypeFeedDisconnected,
		bus.EventTypeFeedError,
		bus.EventTypeConfigReloaded,
	}, func(e bus.Event) {
		log.Debug().Str("event", string(e.Type)).Fields(e.Data).Msg("Event")
	})
}
