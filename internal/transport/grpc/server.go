package grpc

import (
	"context"
	"errors"
	"net"
	"sort"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name reported by the health service alongside the
// overall ("") status.
const ServiceName = "roomly.Booking"

type ReadyCheck func(ctx context.Context) error

type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    *zap.Logger
}

func NewServer(log *zap.Logger, requestTimeout time.Duration) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "grpc"))

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			defaultRequestTimeoutInterceptor(requestTimeout),
			loggingInterceptor(log),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{srv: srv, health: hs, log: log}
	s.SetServing(true)
	return s
}

func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// WatchReadiness runs checks every interval and mirrors the result into the
// health service until ctx is done.
func (s *Server) WatchReadiness(ctx context.Context, interval time.Duration, checks map[string]ReadyCheck) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	runChecks := func() {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		for _, name := range names {
			if err := checks[name](cctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn("dependency not ready", zap.String("check", name), zap.Error(err))
				s.SetServing(false)
				return
			}
		}
		s.SetServing(true)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	runChecks()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runChecks()
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("grpc server started", zap.String("grpc_addr", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown reports NOT_SERVING, then stops gracefully, forcing the stop once
// timeout elapses.
func (s *Server) Shutdown(timeout time.Duration) {
	s.log.Info("shutting down grpc server", zap.Duration("timeout", timeout))
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		s.log.Info("grpc server stopped")
	case <-timer.C:
		s.log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.srv.Stop()
	}
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("grpc request",
			zap.String("rpc", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}
