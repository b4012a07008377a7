package eventstore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bullet-productivity/journal/internal/contracts"
)

var ErrNotAnEvent = errors.New("message is not an event")

// Repository is the append-only event log. Append must ignore an envelope whose
// ID is already stored and report false for it, so re-driving an append after
// a crash is harmless.
type Repository interface {
	Append(ctx context.Context, env contracts.Envelope) (bool, error)
	Load(ctx context.Context) ([]contracts.Envelope, error)
	Close() error
}

type PublishFunc func(ctx context.Context, msg contracts.Message) (contracts.Response, error)

type Service struct {
	Repository Repository
	Publish    PublishFunc
}

func NewService(repository Repository, publish PublishFunc) *Service {
	return &Service{Repository: repository, Publish: publish}
}

// HandleEvent is the EmittedEvents subscriber: append, then republish unchanged
// on PersistedEvents. An event already in the log is not republished.
func (s *Service) HandleEvent(ctx context.Context, msg contracts.Message) (contracts.Response, error) {
	event, ok := msg.(contracts.Event)
	if !ok {
		return contracts.Failure, fmt.Errorf("%w: %T", ErrNotAnEvent, msg)
	}
	env, err := contracts.EncodeEvent(event)
	if err != nil {
		return contracts.Failure, err
	}
	inserted, err := s.Repository.Append(ctx, env)
	if err != nil {
		return contracts.Failure, fmt.Errorf("append %s: %w", event.Kind(), err)
	}
	if !inserted {
		log.Printf("eventstore: %s %s already stored, not republished", event.Kind(), env.ID)
		return contracts.Success, nil
	}
	if _, err := s.Publish(ctx, event); err != nil {
		return contracts.Failure, err
	}
	return contracts.Success, nil
}

// PlayHistory republishes the whole log in stored order and returns how many
// events were delivered. Records of an unknown kind are skipped; a malformed
// record stops the replay.
func (s *Service) PlayHistory(ctx context.Context) (int, error) {
	history, err := s.Repository.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load event log: %w", err)
	}

	played := 0
	for i, env := range history {
		event, err := contracts.DecodeEvent(env)
		if errors.Is(err, contracts.ErrUnknownEventKind) {
			log.Printf("eventstore: skipping record %d (%s): %v", i, env.ID, err)
			continue
		}
		if err != nil {
			return played, fmt.Errorf("decode record %d: %w", i, err)
		}
		if _, err := s.Publish(ctx, event); err != nil {
			return played, fmt.Errorf("replay record %d: %w", i, err)
		}
		played++
	}
	return played, nil
}
