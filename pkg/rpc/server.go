// Package rpc runs the gRPC side-car server. It exposes the standard
// grpc.health.v1.Health service, whose status follows a readiness probe
// (the database ping), plus reflection for grpcurl.
//
//	srv := rpc.New(func(ctx context.Context) error { return database.Ping(ctx, db) })
//	go srv.Serve(ctx, lis)
package rpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// ServiceName is the health service key reported alongside the overall ("")
// status.
const ServiceName = "storefront"

var (
	handled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "grpc",
		Name:      "handled_total",
		Help:      "gRPC calls completed, by method and code.",
	}, []string{"method", "code"})

	handling = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "grpc",
		Name:      "handling_seconds",
		Help:      "gRPC call latency in seconds.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"method"})
)

func init() {
	metrics.DefaultRegistry.MustRegister(handled, handling)
}

// Probe reports whether the service can serve traffic.
type Probe func(ctx context.Context) error

// Server wraps a *grpc.Server and its health bookkeeping.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	probe    Probe
	interval time.Duration
}

// New builds the server. probe may be nil (always serving).
func New(probe Probe) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, loggingInterceptor, metricsInterceptor),
		grpc.MaxRecvMsgSize(4<<20),
		grpc.MaxSendMsgSize(4<<20),
	)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	return &Server{grpc: gs, health: hs, probe: probe, interval: 10 * time.Second}
}

// GRPC exposes the underlying server for registering more services.
func (s *Server) GRPC() *grpc.Server { return s.grpc }

// Listen opens the TCP listener for port.
func Listen(port string) (net.Listener, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("rpc: listen on :%s: %w", port, err)
	}
	return lis, nil
}

// Serve runs until ctx ends, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)
	go s.watch(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(lis) }()
	logger.Info("gRPC server listening", "addr", lis.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		logger.Info("gRPC server stopped")
		return nil
	}
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh runs the probe and publishes the result.
func (s *Server) refresh(ctx context.Context) {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if s.probe != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.probe(pctx)
		cancel()
		if err != nil {
			logger.Warn("rpc: readiness probe failed", "error", err)
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("rpc: panic recovered", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Debug("rpc: request",
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"code", status.Code(err).String(),
	)
	return resp, err
}

func metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	handled.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	handling.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	return resp, err
}
