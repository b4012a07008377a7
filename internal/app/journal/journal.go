// Package journal assembles the broker, write model, event store and read model
// into one engine and is the entry point the CLI and HTTP surfaces call.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bullet-productivity/journal/internal/app/eventfeed"
	"github.com/bullet-productivity/journal/internal/app/eventstore"
	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/app/writemodel"
	"github.com/bullet-productivity/journal/internal/broker"
	"github.com/bullet-productivity/journal/internal/contracts"
	"github.com/bullet-productivity/journal/internal/platform/metrics"
)

var (
	ErrNotOpen     = errors.New("journal history not replayed yet")
	ErrAlreadyOpen = errors.New("journal already opened")
)

// Journal serializes every command and query behind one mutex, so the
// synchronous broker never sees two publishers at once.
type Journal struct {
	mu     sync.Mutex
	opened bool

	broker     *broker.Broker
	writes     *writemodel.Service
	store      *eventstore.Service
	projection *readmodel.Projection
	feed       *eventfeed.Hub
	repository eventstore.Repository
	send       broker.Handler

	observed *writemodel.Outcome
	metrics  *instruments
}

func New(repository eventstore.Repository) *Journal {
	b := broker.New()
	j := &Journal{
		broker:     b,
		repository: repository,
		projection: readmodel.New(),
		feed:       eventfeed.NewHub(eventfeed.DefaultBuffer),
		writes:     writemodel.NewService(writemodel.PublishFunc(b.Publisher(broker.EmittedEvents))),
		store:      eventstore.NewService(repository, eventstore.PublishFunc(b.Publisher(broker.PersistedEvents))),
		send:       b.Publisher(broker.Commands),
	}
	j.writes.Observe = func(o writemodel.Outcome) {
		if j.observed != nil {
			*j.observed = o
		}
	}

	b.Subscribe(broker.Commands, j.writes.HandleCommand)
	b.Subscribe(broker.EmittedEvents, j.store.HandleEvent)
	b.Subscribe(broker.PersistedEvents, j.projection.HandleEvent)
	b.Subscribe(broker.PersistedEvents, j.writes.ObservePersisted)
	b.Subscribe(broker.PersistedEvents, j.feed.HandleEvent)

	j.metrics = newInstruments(j)
	return j
}

// Open replays the stored history into the projections. Commands are refused
// until it has succeeded.
func (j *Journal) Open(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.opened {
		return 0, ErrAlreadyOpen
	}

	started := time.Now()
	played, err := j.store.PlayHistory(ctx)
	j.metrics.replayed.Add(float64(played))
	if err != nil {
		return played, fmt.Errorf("replay history: %w", err)
	}
	j.metrics.replayDuration.Set(time.Since(started).Seconds())
	j.opened = true
	log.Printf("journal: replayed %d events in %s", played, time.Since(started).Round(time.Millisecond))
	return played, nil
}

// Execute publishes cmd on the Commands channel and reports what the write
// model decided. A rejection is an Outcome with a Failure response, not an error.
func (j *Journal) Execute(ctx context.Context, cmd contracts.Command) (writemodel.Outcome, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.execute(ctx, cmd)
}

func (j *Journal) execute(ctx context.Context, cmd contracts.Command) (writemodel.Outcome, error) {
	if !j.opened {
		return writemodel.Outcome{Command: cmd, Response: contracts.Failure}, ErrNotOpen
	}

	outcome := writemodel.Outcome{Command: cmd}
	j.observed = &outcome
	res, err := j.send(ctx, cmd)
	j.observed = nil

	if err != nil {
		j.metrics.commands.Inc(string(cmd.Kind()), "Error")
		return writemodel.Outcome{Command: cmd, Response: contracts.Failure}, err
	}
	if outcome.Response == "" {
		outcome.Response = res
	}
	j.metrics.commands.Inc(string(cmd.Kind()), string(outcome.Response))
	if outcome.Notice.Rejected() {
		log.Printf("journal: %s rejected: %s", cmd.Kind(), outcome.Notice)
	}
	return outcome, nil
}

// View runs fn with the projection. fn must not retain it or call back into j.
func (j *Journal) View(fn func(p *readmodel.Projection)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(j.projection)
}

// ActiveLog reports the open work session, if any.
func (j *Journal) ActiveLog() (string, time.Time, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.writes.ActiveLog()
}

// ResetDailyTodos reopens every completed todo scheduled Daily and makes it due
// at now. It returns how many todos were reset.
func (j *Journal) ResetDailyTodos(ctx context.Context, now time.Time) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var due []string
	for _, todo := range j.projection.Todos() {
		if todo.Complete && todo.Scheduled == contracts.FrequencyDaily {
			due = append(due, todo.GUID)
		}
	}

	meta := contracts.CommandMeta{At: now}
	for i, guid := range due {
		if _, err := j.execute(ctx, contracts.MarkTodoIncomplete{CommandMeta: meta, GUID: guid}); err != nil {
			return i, fmt.Errorf("reset %s: %w", guid, err)
		}
		if _, err := j.execute(ctx, contracts.UpdateTodoDueDate{CommandMeta: meta, GUID: guid, DueDate: now}); err != nil {
			return i, fmt.Errorf("reset %s: %w", guid, err)
		}
	}
	return len(due), nil
}

// Feed returns the hub that receives every persisted event, replayed ones
// included.
func (j *Journal) Feed() *eventfeed.Hub {
	return j.feed
}

// Metrics returns the registry holding the journal's collectors.
func (j *Journal) Metrics() *metrics.Registry {
	return j.metrics.registry
}

func (j *Journal) Close() error {
	return j.repository.Close()
}
