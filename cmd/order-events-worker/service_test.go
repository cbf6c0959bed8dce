package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

type fakePubSub struct {
	err error
}

func (f fakePubSub) Ping(context.Context) error {
	return f.err
}

func (f fakePubSub) OrdersSubscription() *gcppubsub.Subscriber {
	return nil
}

type fakeConsumer struct {
	err error
}

func (f fakeConsumer) Run(ctx context.Context, _ *gcppubsub.Subscriber) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func newWorkerService(t *testing.T, db, redis fakePinger, ps fakePubSub, consumer fakeConsumer) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
	service, err := NewService(ServiceParams{
		Config:   &config.Config{},
		Logger:   logg,
		DB:       db,
		Redis:    redis,
		PubSub:   ps,
		Consumer: consumer,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestEnsureReadinessReportsAllFailures(t *testing.T) {
	service := newWorkerService(t,
		fakePinger{err: errors.New("db refused")},
		fakePinger{},
		fakePubSub{err: errors.New("pubsub refused")},
		fakeConsumer{},
	)

	err := service.ensureReadiness(context.Background())
	if err == nil {
		t.Fatal("expected readiness failure")
	}
	msg := err.Error()
	if !strings.Contains(msg, "database ping failed") {
		t.Fatalf("missing database failure: %s", msg)
	}
	if !strings.Contains(msg, "pubsub ping failed") {
		t.Fatalf("missing pubsub failure: %s", msg)
	}
	if strings.Contains(msg, "redis ping failed") {
		t.Fatalf("healthy dependency must not be reported: %s", msg)
	}
}

func TestRunReturnsConsumerError(t *testing.T) {
	wantErr := errors.New("subscription closed")
	service := newWorkerService(t, fakePinger{}, fakePinger{}, fakePubSub{}, fakeConsumer{err: wantErr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := service.Run(ctx)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	service := newWorkerService(t, fakePinger{}, fakePinger{}, fakePubSub{}, fakeConsumer{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	err := service.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
