// Package grpc implements the gRPC transport for polyglot.
//
// This transport exposes the standard grpc.health.v1 service so orchestrators
// and gRPC-native clients can probe the daemon. Besides the overall status,
// each engine capability is its own service name, SERVING only when the
// engine negotiated it at startup. Server reflection is enabled.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nadzzz/polyglot/internal/engine"
)

// ServiceName returns the health service name reported for capability c,
// e.g. "polyglot.Detection".
func ServiceName(c engine.Capability) string {
	switch c {
	case engine.Detection:
		return "polyglot.Detection"
	case engine.Translation:
		return "polyglot.Translation"
	case engine.Summarization:
		return "polyglot.Summarization"
	default:
		return "polyglot.Unknown"
	}
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	caps   engine.Set
	health *health.Server
	server *grpc.Server
	logger *slog.Logger
}

// New creates a new gRPC transport on the given port reporting caps.
func New(port int, caps engine.Set) *Transport {
	t := &Transport{
		port:   port,
		caps:   caps,
		health: health.NewServer(),
		server: grpc.NewServer(),
		logger: slog.With("component", "grpc"),
	}

	healthpb.RegisterHealthServer(t.server, t.health)
	reflection.Register(t.server)

	t.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, c := range engine.All {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if caps.Has(c) {
			status = healthpb.HealthCheckResponse_SERVING
		}
		t.health.SetServingStatus(ServiceName(c), status)
	}
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server. It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return t.Serve(ctx, lis)
}

// Serve serves on lis until the context is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener) error {
	t.logger.Info("grpc transport listening", "addr", lis.Addr().String(), "capabilities", t.caps.String())

	go func() {
		<-ctx.Done()
		t.logger.Info("grpc transport shutting down")
		t.Close()
	}()

	return t.server.Serve(lis)
}

// Close marks every service NOT_SERVING and gracefully stops the server.
func (t *Transport) Close() error {
	t.health.Shutdown()
	t.server.GracefulStop()
	return nil
}
