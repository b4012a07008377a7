package writemodel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nuid"

	"github.com/bullet-productivity/journal/internal/contracts"
)

// ErrUnsupportedCommand prevents unknown write-model transitions.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrUnknownNotice is returned when a handler yields neither an event nor a known notice.
var ErrUnknownNotice = errors.New("unknown notice")

// Notice is the outcome of a command that produced no event.
type Notice string

const (
	NoticeNone                  Notice = ""
	NoticeCategoryAlreadyExists Notice = "CategoryAlreadyExists"
	NoticeTaskLogNeverStarted   Notice = "TaskLogNeverStarted"
	NoticeTaskStarted           Notice = "TaskStarted"
)

// Rejected reports whether the notice is a validation failure.
func (n Notice) Rejected() bool {
	return n == NoticeCategoryAlreadyExists || n == NoticeTaskLogNeverStarted
}

// Outcome describes what a single command did.
type Outcome struct {
	Command  contracts.Command
	Response contracts.Response
	Notice   Notice
	Event    contracts.Event
}

type PublishFunc func(ctx context.Context, msg contracts.Message) (contracts.Response, error)

type activeLog struct {
	guid    string
	started time.Time
}

// Service validates commands and turns accepted ones into events. It owns the
// category name cache and the single active-log slot.
type Service struct {
	Publish    PublishFunc
	NewGUID    func() string
	NewEventID func() string
	// Observe, when set, is called with the outcome of every handled command.
	Observe func(Outcome)

	categories map[string]struct{}
	active     *activeLog
}

func NewService(publish PublishFunc) *Service {
	return &Service{
		Publish:    publish,
		NewGUID:    func() string { return uuid.NewString() },
		NewEventID: nuid.Next,
		categories: map[string]struct{}{},
	}
}

// HandleCommand is the Commands channel subscriber.
func (s *Service) HandleCommand(ctx context.Context, msg contracts.Message) (contracts.Response, error) {
	cmd, ok := msg.(contracts.Command)
	if !ok {
		return contracts.Failure, fmt.Errorf("%w: %T is not a command", ErrUnsupportedCommand, msg)
	}

	event, notice, err := s.decide(cmd)
	if err != nil {
		return contracts.Failure, err
	}

	outcome := Outcome{Command: cmd, Notice: notice, Event: event}
	if event == nil {
		switch {
		case notice.Rejected():
			outcome.Response = contracts.Failure
		case notice == NoticeTaskStarted:
			outcome.Response = contracts.Success
		default:
			return contracts.Failure, fmt.Errorf("%w: %q from %s", ErrUnknownNotice, notice, cmd.Kind())
		}
		s.observe(outcome)
		return outcome.Response, nil
	}

	if _, err := s.Publish(ctx, event); err != nil {
		return contracts.Failure, fmt.Errorf("publish %s: %w", event.Kind(), err)
	}
	// The session stays open until its TaskLogged is stored.
	if _, ok := event.(contracts.TaskLogged); ok {
		s.active = nil
	}
	outcome.Response = contracts.Success
	s.observe(outcome)
	return contracts.Success, nil
}

// ObservePersisted is the PersistedEvents subscriber that keeps validation
// caches consistent with the log, including during replay.
func (s *Service) ObservePersisted(_ context.Context, msg contracts.Message) (contracts.Response, error) {
	if added, ok := msg.(contracts.CategoryAdded); ok {
		s.categories[added.Name] = struct{}{}
	}
	return contracts.Success, nil
}

// HasCategory reports whether name has been persisted as a category.
func (s *Service) HasCategory(name string) bool {
	_, ok := s.categories[name]
	return ok
}

// ActiveLog returns the todo GUID and start time of the open work session.
func (s *Service) ActiveLog() (string, time.Time, bool) {
	if s.active == nil {
		return "", time.Time{}, false
	}
	return s.active.guid, s.active.started, true
}

func (s *Service) observe(outcome Outcome) {
	if s.Observe != nil {
		s.Observe(outcome)
	}
}

func (s *Service) meta(at time.Time) contracts.EventMeta {
	return contracts.EventMeta{ID: s.NewEventID(), At: at}
}

func (s *Service) decide(cmd contracts.Command) (contracts.Event, Notice, error) {
	switch c := cmd.(type) {
	case contracts.AddCategory:
		if s.HasCategory(c.Name) {
			return nil, NoticeCategoryAlreadyExists, nil
		}
		return contracts.CategoryAdded{EventMeta: s.meta(c.At), Name: c.Name}, NoticeNone, nil

	case contracts.AddNote:
		return contracts.NoteAdded{
			EventMeta: s.meta(c.At),
			GUID:      s.NewGUID(),
			Name:      c.Name,
			Text:      c.Text,
			Category:  c.Category,
		}, NoticeNone, nil

	case contracts.AddTodo:
		return contracts.TodoAdded{
			EventMeta: s.meta(c.At),
			GUID:      s.NewGUID(),
			Name:      c.Name,
			Text:      c.Text,
			Category:  c.Category,
			DueDate:   c.DueDate,
		}, NoticeNone, nil

	case contracts.MarkTodoComplete:
		return contracts.TodoMarkedComplete{EventMeta: s.meta(c.At), GUID: c.GUID}, NoticeNone, nil

	case contracts.MarkTodoIncomplete:
		return contracts.TodoMarkedIncomplete{EventMeta: s.meta(c.At), GUID: c.GUID}, NoticeNone, nil

	case contracts.UpdateTodoDueDate:
		return contracts.TodoDueDateUpdated{EventMeta: s.meta(c.At), GUID: c.GUID, DueDate: c.DueDate}, NoticeNone, nil

	case contracts.ScheduleTodo:
		return contracts.TodoScheduled{EventMeta: s.meta(c.At), GUID: c.GUID, Scheduled: c.Scheduled}, NoticeNone, nil

	case contracts.StartLog:
		if s.active != nil {
			// Only one session can be open; the earlier one is dropped.
			log.Printf("writemodel: start log for %s discards open session on %s started %s",
				c.GUID, s.active.guid, s.active.started.Format(time.RFC3339))
		}
		s.active = &activeLog{guid: c.GUID, started: c.At}
		return nil, NoticeTaskStarted, nil

	case contracts.StopLog:
		if s.active == nil {
			return nil, NoticeTaskLogNeverStarted, nil
		}
		started := s.active
		return contracts.TaskLogged{
			EventMeta: s.meta(started.started),
			GUID:      started.guid,
			TaskDelta: c.At.Sub(started.started).Milliseconds(),
		}, NoticeNone, nil

	case contracts.UpdateNoteText:
		return contracts.NoteTextUpdated{EventMeta: s.meta(c.At), GUID: c.GUID, Text: c.Text}, NoticeNone, nil

	case contracts.UpdateNoteCategory:
		return contracts.NoteCategoryUpdated{EventMeta: s.meta(c.At), GUID: c.GUID, Category: c.Category}, NoticeNone, nil

	case contracts.ChangeTodoCategory:
		return contracts.TodoCategoryChanged{EventMeta: s.meta(c.At), GUID: c.GUID, Category: c.Category}, NoticeNone, nil

	case contracts.ChangeTodoTitle:
		return contracts.TodoTitleChanged{EventMeta: s.meta(c.At), GUID: c.GUID, Name: c.Name}, NoticeNone, nil

	case contracts.ChangeTodoDescription:
		return contracts.TodoDescriptionChanged{EventMeta: s.meta(c.At), GUID: c.GUID, Text: c.Text}, NoticeNone, nil

	default:
		return nil, NoticeNone, fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Kind())
	}
}
