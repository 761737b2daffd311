package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(func() { s.Shutdown(time.Second) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func checkStatus(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q) error: %v", service, err)
	}
	return resp.Status
}

func TestHealth_ServingStatus(t *testing.T) {
	s := NewServer(nil, time.Second)
	client := startServer(t, s)

	if got := checkStatus(t, client, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %s, want SERVING", got)
	}
	s.SetServing(false)
	if got := checkStatus(t, client, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %s, want NOT_SERVING", got)
	}
}

func TestWatchReadiness_FollowsChecks(t *testing.T) {
	s := NewServer(nil, time.Second)
	client := startServer(t, s)

	var failing atomic.Bool
	failing.Store(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.WatchReadiness(ctx, 10*time.Millisecond, map[string]ReadyCheck{
		"database": func(context.Context) error {
			if failing.Load() {
				return errors.New("down")
			}
			return nil
		},
	})

	waitFor := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if checkStatus(t, client, "") == want {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatalf("status never became %s", want)
	}

	waitFor(healthpb.HealthCheckResponse_NOT_SERVING)
	failing.Store(false)
	waitFor(healthpb.HealthCheckResponse_SERVING)
}

func TestDefaultRequestTimeoutInterceptor(t *testing.T) {
	interceptor := defaultRequestTimeoutInterceptor(50 * time.Millisecond)
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Method"}

	var deadline time.Time
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		var ok bool
		deadline, ok = ctx.Deadline()
		if !ok {
			t.Fatalf("expected deadline")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	if time.Until(deadline) > 50*time.Millisecond {
		t.Fatalf("deadline too far: %s", time.Until(deadline))
	}

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := parent.Deadline()
	_, _ = interceptor(parent, nil, info, func(ctx context.Context, req any) (any, error) {
		got, _ := ctx.Deadline()
		if !got.Equal(want) {
			t.Fatalf("caller deadline replaced: %s vs %s", got, want)
		}
		return nil, nil
	})
}
