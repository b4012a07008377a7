// Package eventfeed fans persisted events out to live subscribers such as
// server-sent event streams.
package eventfeed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bullet-productivity/journal/internal/contracts"
)

var ErrNotAnEvent = errors.New("event feed received a non-event message")

const DefaultBuffer = 64

// Hub broadcasts every event it handles to all current subscribers. A
// subscriber that falls behind by more than its buffer misses events.
type Hub struct {
	buffer int

	mu          sync.Mutex
	nextID      uint64
	subscribers map[uint64]chan contracts.Envelope

	dropped atomic.Uint64
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer:      buffer,
		subscribers: make(map[uint64]chan contracts.Envelope),
	}
}

// HandleEvent is a broker subscriber for the persisted-events channel.
func (h *Hub) HandleEvent(_ context.Context, msg contracts.Message) (contracts.Response, error) {
	event, ok := msg.(contracts.Event)
	if !ok {
		return contracts.Failure, ErrNotAnEvent
	}
	env, err := contracts.EncodeEvent(event)
	if err != nil {
		return contracts.Failure, err
	}
	h.broadcast(env)
	return contracts.Success, nil
}

// Subscribe registers a new subscriber. The returned func unsubscribes and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan contracts.Envelope, func()) {
	ch := make(chan contracts.Envelope, h.buffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Dropped counts deliveries skipped because a subscriber's buffer was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) broadcast(env contracts.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- env:
		default:
			h.dropped.Add(1)
		}
	}
}
