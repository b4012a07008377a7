package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownEventKind = errors.New("unknown event kind")
var ErrUnknownCommandKind = errors.New("unknown command kind")
var ErrInvalidEventPayload = errors.New("invalid event payload")
var ErrInvalidCommandPayload = errors.New("invalid command payload")

// Envelope is the wire and storage shape of a message:
// {id, type, timestamp, payload}. Commands leave ID empty.
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// EncodeEvent converts an event variant to its envelope.
func EncodeEvent(event Event) (Envelope, error) {
	if event == nil {
		return Envelope{}, fmt.Errorf("%w: nil event", ErrInvalidEventPayload)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event.Kind(), err)
	}
	return Envelope{
		ID:        event.EventID(),
		Type:      string(event.Kind()),
		Timestamp: event.MessageTime(),
		Payload:   payload,
	}, nil
}

// DecodeEvent converts an envelope back into its event variant.
func DecodeEvent(env Envelope) (Event, error) {
	if env.Timestamp.IsZero() {
		return nil, fmt.Errorf("%w: %s has no timestamp", ErrInvalidEventPayload, env.Type)
	}
	switch EventKind(env.Type) {
	case EventCategoryAdded:
		return decodeEventAs[CategoryAdded](env)
	case EventNoteAdded:
		return decodeEventAs[NoteAdded](env)
	case EventNoteTextUpdated:
		return decodeEventAs[NoteTextUpdated](env)
	case EventNoteCategoryUpdated:
		return decodeEventAs[NoteCategoryUpdated](env)
	case EventTodoAdded:
		return decodeEventAs[TodoAdded](env)
	case EventTodoDueDateUpdated:
		return decodeEventAs[TodoDueDateUpdated](env)
	case EventTodoMarkedComplete:
		return decodeEventAs[TodoMarkedComplete](env)
	case EventTodoMarkedIncomplete:
		return decodeEventAs[TodoMarkedIncomplete](env)
	case EventTodoCategoryChanged:
		return decodeEventAs[TodoCategoryChanged](env)
	case EventTodoTitleChanged:
		return decodeEventAs[TodoTitleChanged](env)
	case EventTodoDescriptionChanged:
		return decodeEventAs[TodoDescriptionChanged](env)
	case EventTodoScheduled:
		return decodeEventAs[TodoScheduled](env)
	case EventTaskLogged:
		return decodeEventAs[TaskLogged](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, env.Type)
	}
}

// EncodeCommand converts a command variant to its envelope.
func EncodeCommand(cmd Command) (Envelope, error) {
	if cmd == nil {
		return Envelope{}, fmt.Errorf("%w: nil command", ErrInvalidCommandPayload)
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", cmd.Kind(), err)
	}
	return Envelope{
		Type:      string(cmd.Kind()),
		Timestamp: cmd.MessageTime(),
		Payload:   payload,
	}, nil
}

// DecodeCommand converts an envelope into its command variant.
func DecodeCommand(env Envelope) (Command, error) {
	if env.Timestamp.IsZero() {
		return nil, fmt.Errorf("%w: %s has no timestamp", ErrInvalidCommandPayload, env.Type)
	}
	switch CommandKind(env.Type) {
	case CommandAddCategory:
		return decodeCommandAs[AddCategory](env)
	case CommandAddNote:
		return decodeCommandAs[AddNote](env)
	case CommandAddTodo:
		return decodeCommandAs[AddTodo](env)
	case CommandMarkTodoComplete:
		return decodeCommandAs[MarkTodoComplete](env)
	case CommandMarkTodoIncomplete:
		return decodeCommandAs[MarkTodoIncomplete](env)
	case CommandUpdateTodoDueDate:
		return decodeCommandAs[UpdateTodoDueDate](env)
	case CommandScheduleTodo:
		cmd, err := decodeCommandAs[ScheduleTodo](env)
		if err != nil {
			return nil, err
		}
		if f := cmd.(ScheduleTodo).Scheduled; !f.Valid() {
			return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidCommandPayload, f)
		}
		return cmd, nil
	case CommandStartLog:
		return decodeCommandAs[StartLog](env)
	case CommandStopLog:
		return decodeCommandAs[StopLog](env)
	case CommandUpdateNoteText:
		return decodeCommandAs[UpdateNoteText](env)
	case CommandUpdateNoteCategory:
		return decodeCommandAs[UpdateNoteCategory](env)
	case CommandChangeTodoCategory:
		return decodeCommandAs[ChangeTodoCategory](env)
	case CommandChangeTodoTitle:
		return decodeCommandAs[ChangeTodoTitle](env)
	case CommandChangeTodoDescription:
		return decodeCommandAs[ChangeTodoDescription](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommandKind, env.Type)
	}
}

func (m *EventMeta) setEventMeta(v EventMeta)       { *m = v }
func (m *CommandMeta) setCommandMeta(v CommandMeta) { *m = v }

func decodeEventAs[T Event, P interface {
	*T
	setEventMeta(EventMeta)
}](env Envelope) (Event, error) {
	var v T
	if err := unmarshalPayload(env.Payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEventPayload, env.Type, err)
	}
	P(&v).setEventMeta(EventMeta{ID: env.ID, At: env.Timestamp})
	return v, nil
}

func decodeCommandAs[T Command, P interface {
	*T
	setCommandMeta(CommandMeta)
}](env Envelope) (Command, error) {
	var v T
	if err := unmarshalPayload(env.Payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCommandPayload, env.Type, err)
	}
	P(&v).setCommandMeta(CommandMeta{At: env.Timestamp})
	return v, nil
}

func unmarshalPayload(payload json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, dst)
}
