// Package broker is a synchronous, in-process publish/subscribe router over a
// fixed set of channels.
//
// Publishing is depth-first: a publish call runs every subscriber, and every
// publish those subscribers make in turn, before it returns.
package broker

import (
	"context"
	"sync"

	"github.com/bullet-productivity/journal/internal/contracts"
)

// Channel is a named topic.
type Channel string

const (
	Commands        Channel = "Commands"
	EmittedEvents   Channel = "EmittedEvents"
	PersistedEvents Channel = "PersistedEvents"
)

// Handler receives a message. Publishers have the same shape, so a publisher
// can be handed to a component as its outbound sender.
//
// The Response is informational and ignored by the broker. A non-nil error
// signals a programming error and aborts the publish that delivered the message.
type Handler func(ctx context.Context, msg contracts.Message) (contracts.Response, error)

type Broker struct {
	mu          sync.RWMutex
	channels    []Channel
	subscribers map[Channel][]Handler
}

func New() *Broker {
	channels := []Channel{Commands, EmittedEvents, PersistedEvents}
	b := &Broker{
		channels:    channels,
		subscribers: make(map[Channel][]Handler, len(channels)),
	}
	for _, c := range channels {
		b.subscribers[c] = nil
	}
	return b
}

// Channels returns the fixed channel set.
func (b *Broker) Channels() []Channel {
	out := make([]Channel, len(b.channels))
	copy(out, b.channels)
	return out
}

// Subscribe registers handler to run for every message later published on channel.
// It panics if channel is not one of the broker's channels.
func (b *Broker) Subscribe(channel Channel, handler Handler) contracts.Response {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.subscribers[channel]
	if !ok {
		panic("broker: subscribe to unknown channel " + string(channel))
	}
	b.subscribers[channel] = append(subs, handler)
	return contracts.Success
}

// Publisher returns the sender for channel. It panics if channel is unknown.
func (b *Broker) Publisher(channel Channel) Handler {
	b.mu.RLock()
	_, ok := b.subscribers[channel]
	b.mu.RUnlock()
	if !ok {
		panic("broker: publisher for unknown channel " + string(channel))
	}
	return func(ctx context.Context, msg contracts.Message) (contracts.Response, error) {
		return b.publish(ctx, channel, msg)
	}
}

func (b *Broker) publish(ctx context.Context, channel Channel, msg contracts.Message) (contracts.Response, error) {
	// Snapshot so a subscriber registered mid-publish only sees later messages,
	// and so nested publishes never wait on this lock.
	b.mu.RLock()
	subs := b.subscribers[channel]
	handlers := make([]Handler, len(subs))
	copy(handlers, subs)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if _, err := handler(ctx, msg); err != nil {
			return contracts.Failure, err
		}
	}
	return contracts.Success, nil
}
