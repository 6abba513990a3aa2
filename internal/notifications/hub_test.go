package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// TestHubPublishSubscribe проверяет доставку событий подписчику коллекции.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(Subscriptions)
	defer unsubscribe()

	hub.Publish(Subscriptions, Event{Type: "test"})

	select {
	case event := <-ch:
		if event.Type != "test" || event.Collection != Subscriptions {
			t.Fatalf("unexpected event %+v", event)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be set")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
}

// TestHubIgnoresOtherCollections проверяет фильтрацию по коллекции.
func TestHubIgnoresOtherCollections(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(Categories)
	defer unsubscribe()

	hub.Changed(Subscriptions)

	select {
	case event := <-ch:
		t.Fatalf("unexpected event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHubUnsubscribe проверяет закрытие канала после отписки.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(Subscriptions, Settings)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}

	hub.Changed(Subscriptions, Settings)
}

// TestHubWatch проверяет первичный вызов и пересчет после изменения.
func TestHubWatch(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	called := make(chan struct{}, 10)
	done := make(chan error, 1)

	go func() {
		done <- hub.Watch(ctx, []Collection{Subscriptions}, func(context.Context) error {
			calls.Add(1)
			called <- struct{}{}
			return nil
		})
	}()

	waitCall := func() {
		select {
		case <-called:
		case <-time.After(time.Second):
			t.Fatal("expected callback")
		}
	}

	waitCall()
	hub.Changed(Subscriptions)
	waitCall()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected at least 2 calls, got %d", calls.Load())
	}
}
