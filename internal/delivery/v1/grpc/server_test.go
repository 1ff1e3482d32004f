package grpc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/inventory-service/internal/cfg"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type switchPinger struct {
	down atomic.Bool
}

func (p *switchPinger) Ping(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func serviceStatus(t *testing.T, s *GRPCServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	res, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("health check %q: %v", service, err)
	}

	return res.GetStatus()
}

func TestCheckStoreSwitchesStatus(t *testing.T) {
	s := NewGRPCServer(&cfg.GRPCConfig{Port: "0", NetworkMode: "tcp"}, logger.NewDiscard())
	store := &switchPinger{}

	s.checkStore(context.Background(), store, time.Second)
	if got := serviceStatus(t, s, ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", got)
	}

	store.down.Store(true)
	s.checkStore(context.Background(), store, time.Second)
	for _, svc := range []string{ServiceName, ""} {
		if got := serviceStatus(t, s, svc); got != healthpb.HealthCheckResponse_NOT_SERVING {
			t.Fatalf("expected NOT_SERVING for %q, got %s", svc, got)
		}
	}
}

func TestWatchStoreStopsWithContext(t *testing.T) {
	s := NewGRPCServer(&cfg.GRPCConfig{Port: "0", NetworkMode: "tcp"}, logger.NewDiscard())
	store := &switchPinger{}
	store.down.Store(true)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.WatchStore(ctx, store, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for serviceStatus(t, s, ServiceName) != healthpb.HealthCheckResponse_NOT_SERVING {
		select {
		case <-deadline:
			t.Fatalf("status was not updated")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("WatchStore did not return after cancel")
	}
}
