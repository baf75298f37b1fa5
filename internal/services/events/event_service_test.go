package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/interfaces"
)

func TestSubscribeAndPublishSync(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	var received atomic.Int64
	handler := func(ctx context.Context, event interfaces.Event) error {
		if event.Type != interfaces.EventAnalysisCompleted {
			t.Errorf("unexpected event type: %s", event.Type)
		}
		received.Add(1)
		return nil
	}

	if err := service.Subscribe(interfaces.EventAnalysisCompleted, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	event := interfaces.Event{Type: interfaces.EventAnalysisCompleted, Payload: "obs_1"}
	if err := service.PublishSync(context.Background(), event); err != nil {
		t.Fatalf("PublishSync failed: %v", err)
	}
	if received.Load() != 1 {
		t.Errorf("expected 1 delivery, got %d", received.Load())
	}
}

func TestPublishAsyncDelivers(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	done := make(chan struct{})
	var once sync.Once
	handler := func(ctx context.Context, event interfaces.Event) error {
		once.Do(func() { close(done) })
		return nil
	}
	if err := service.Subscribe(interfaces.EventPathogenDetected, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventPathogenDetected}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler was never invoked")
	}
}

func TestPublishSyncReportsHandlerErrors(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	failing := func(ctx context.Context, event interfaces.Event) error {
		return fmt.Errorf("boom")
	}
	if err := service.Subscribe(interfaces.EventWatchlistRun, failing); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventWatchlistRun}); err == nil {
		t.Error("expected error from failing handler")
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	if err := service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventAnalysisCompleted}); err != nil {
		t.Errorf("Publish with no subscribers: %v", err)
	}
	if err := service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventAnalysisCompleted}); err != nil {
		t.Errorf("PublishSync with no subscribers: %v", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	if err := service.Subscribe(interfaces.EventAnalysisCompleted, nil); err == nil {
		t.Error("expected error for nil handler")
	}
}

func TestUnsubscribe(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	var received atomic.Int64
	handler := func(ctx context.Context, event interfaces.Event) error {
		received.Add(1)
		return nil
	}

	if err := service.Subscribe(interfaces.EventAnalysisCompleted, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := service.Unsubscribe(interfaces.EventAnalysisCompleted, handler); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	if err := service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventAnalysisCompleted}); err != nil {
		t.Fatalf("PublishSync failed: %v", err)
	}
	if received.Load() != 0 {
		t.Errorf("expected no deliveries after unsubscribe, got %d", received.Load())
	}

	// Unknown handler is an error
	other := func(ctx context.Context, event interfaces.Event) error { return nil }
	if err := service.Unsubscribe(interfaces.EventAnalysisCompleted, other); err == nil {
		t.Error("expected error unsubscribing unknown handler")
	}
}

func TestClosedServiceDropsEvents(t *testing.T) {
	service := NewService(arbor.NewLogger())

	var received atomic.Int64
	handler := func(ctx context.Context, event interfaces.Event) error {
		received.Add(1)
		return nil
	}
	if err := service.Subscribe(interfaces.EventAnalysisCompleted, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := service.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventAnalysisCompleted}); err != nil {
		t.Errorf("PublishSync after close: %v", err)
	}
	if received.Load() != 0 {
		t.Errorf("expected no deliveries after close, got %d", received.Load())
	}

	if err := service.Subscribe(interfaces.EventAnalysisCompleted, handler); err == nil {
		t.Error("expected error subscribing after close")
	}
}
