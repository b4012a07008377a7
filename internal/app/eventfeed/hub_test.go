package eventfeed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bullet-productivity/journal/internal/contracts"
)

func categoryAdded(id, name string) contracts.CategoryAdded {
	return contracts.CategoryAdded{
		EventMeta: contracts.EventMeta{ID: id, At: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)},
		Name:      name,
	}
}

func TestHub_BroadcastsToEverySubscriber(t *testing.T) {
	hub := NewHub(4)
	first, unsubFirst := hub.Subscribe()
	defer unsubFirst()
	second, unsubSecond := hub.Subscribe()
	defer unsubSecond()

	res, err := hub.HandleEvent(context.Background(), categoryAdded("evt-1", "Work"))
	if err != nil || res != contracts.Success {
		t.Fatalf("HandleEvent = %s, %v", res, err)
	}

	for i, ch := range []<-chan contracts.Envelope{first, second} {
		select {
		case env := <-ch:
			if env.ID != "evt-1" || env.Type != string(contracts.EventCategoryAdded) {
				t.Fatalf("subscriber %d got %+v", i, env)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1)
	ch, unsubscribe := hub.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
	if _, err := hub.HandleEvent(context.Background(), categoryAdded("evt-1", "Work")); err != nil {
		t.Fatalf("HandleEvent without subscribers returned error: %v", err)
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1)
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	for i, id := range []string{"evt-1", "evt-2", "evt-3"} {
		if _, err := hub.HandleEvent(context.Background(), categoryAdded(id, "Work")); err != nil {
			t.Fatalf("HandleEvent %d returned error: %v", i, err)
		}
	}

	if env := <-ch; env.ID != "evt-1" {
		t.Fatalf("expected first event kept, got %s", env.ID)
	}
	if hub.Dropped() != 2 {
		t.Fatalf("expected 2 dropped deliveries, got %d", hub.Dropped())
	}
}

func TestHub_RejectsCommands(t *testing.T) {
	hub := NewHub(1)
	res, err := hub.HandleEvent(context.Background(), contracts.StopLog{})
	if !errors.Is(err, ErrNotAnEvent) || res != contracts.Failure {
		t.Fatalf("expected ErrNotAnEvent failure, got %s, %v", res, err)
	}
}
