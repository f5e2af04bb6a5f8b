package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/polyglot/internal/health"
	"github.com/nadzzz/polyglot/internal/transport"
	grpctransport "github.com/nadzzz/polyglot/internal/transport/grpc"
	httptransport "github.com/nadzzz/polyglot/internal/transport/http"
)

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the polyglot daemon",
		Long:  `Start the HTTP API, the optional gRPC health endpoint and the health server.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	cfg := a.cfg
	slog.Info("polyglot starting", "version", a.version)

	// Root context with signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port, s.chat))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port, s.gw.Capabilities()))
	}
	if len(transports) == 0 {
		return errors.New("no transports enabled; enable at least one in config")
	}

	healthServer := health.New(cfg.Server.HealthPort)
	healthServer.SetEngine(s.host.Name(), s.gw.Capabilities())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthServer.ListenAndServe(gctx)
	})
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(gctx); err != nil {
				return fmt.Errorf("transport %s: %w", t.Name(), err)
			}
			return nil
		})
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("polyglot ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort,
		"store", cfg.Store.Backend)

	<-gctx.Done()
	if ctx.Err() != nil {
		slog.Info("shutdown signal received, draining...")
	}
	healthServer.SetReady(false)

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	err = g.Wait()
	slog.Info("polyglot stopped")
	return err
}
