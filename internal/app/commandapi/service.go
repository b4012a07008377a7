package commandapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/app/writemodel"
	"github.com/bullet-productivity/journal/internal/contracts"
)

var ErrTypeRequired = errors.New("type is required")
var ErrNameRequired = errors.New("name is required")
var ErrGUIDRequired = errors.New("GUID is required")
var ErrDueDateRequired = errors.New("dueDate is required")

// Journal is the engine the API drives; *journal.Journal satisfies it.
type Journal interface {
	Execute(ctx context.Context, cmd contracts.Command) (writemodel.Outcome, error)
	View(fn func(p *readmodel.Projection))
	ResetDailyTodos(ctx context.Context, now time.Time) (int, error)
}

type Service struct {
	Journal Journal
	Now     func() time.Time
}

// CommandRequest is a command envelope; Timestamp defaults to the server clock.
type CommandRequest struct {
	Type      string          `json:"type"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type CommandResponse struct {
	Status string              `json:"status"`
	Type   string              `json:"type"`
	Notice string              `json:"notice,omitempty"`
	Event  *contracts.Envelope `json:"event,omitempty"`
}

func NewService(journal Journal) *Service {
	return &Service{
		Journal: journal,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Accept decodes, checks and executes one command. A write-model rejection is
// reported in the response with status "rejected", not as an error.
func (s *Service) Accept(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	kind := strings.TrimSpace(req.Type)
	if kind == "" {
		return CommandResponse{}, ErrTypeRequired
	}
	at := s.Now()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		at = *req.Timestamp
	}

	cmd, err := contracts.DecodeCommand(contracts.Envelope{Type: kind, Timestamp: at, Payload: req.Payload})
	if err != nil {
		return CommandResponse{}, err
	}
	if err := validate(cmd); err != nil {
		return CommandResponse{}, err
	}

	outcome, err := s.Journal.Execute(ctx, cmd)
	if err != nil {
		return CommandResponse{}, err
	}

	resp := CommandResponse{Status: "accepted", Type: kind, Notice: string(outcome.Notice)}
	if outcome.Response != contracts.Success {
		resp.Status = "rejected"
	}
	if outcome.Event != nil {
		env, err := contracts.EncodeEvent(outcome.Event)
		if err != nil {
			return CommandResponse{}, err
		}
		resp.Event = &env
	}
	return resp, nil
}

func validate(cmd contracts.Command) error {
	switch c := cmd.(type) {
	case contracts.AddCategory:
		return requireName(c.Name)
	case contracts.AddNote:
		return requireName(c.Name)
	case contracts.AddTodo:
		return requireName(c.Name)
	case contracts.ChangeTodoTitle:
		if err := requireGUID(c.GUID); err != nil {
			return err
		}
		return requireName(c.Name)
	case contracts.UpdateTodoDueDate:
		if err := requireGUID(c.GUID); err != nil {
			return err
		}
		if c.DueDate.IsZero() {
			return ErrDueDateRequired
		}
	case contracts.MarkTodoComplete:
		return requireGUID(c.GUID)
	case contracts.MarkTodoIncomplete:
		return requireGUID(c.GUID)
	case contracts.ScheduleTodo:
		return requireGUID(c.GUID)
	case contracts.StartLog:
		return requireGUID(c.GUID)
	case contracts.UpdateNoteText:
		return requireGUID(c.GUID)
	case contracts.UpdateNoteCategory:
		return requireGUID(c.GUID)
	case contracts.ChangeTodoCategory:
		return requireGUID(c.GUID)
	case contracts.ChangeTodoDescription:
		return requireGUID(c.GUID)
	}
	return nil
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	return nil
}

func requireGUID(guid string) error {
	if strings.TrimSpace(guid) == "" {
		return ErrGUIDRequired
	}
	return nil
}
