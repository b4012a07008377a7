package contracts

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeEvent_PreservesNanoseconds(t *testing.T) {
	at := time.Date(2026, 3, 26, 8, 0, 0, 123456789, time.UTC)
	due := time.Date(2026, 3, 27, 9, 30, 0, 987654321, time.UTC)
	in := TodoAdded{
		EventMeta: EventMeta{ID: "evt-1", At: at},
		GUID:      "guid-1",
		Name:      "Write report",
		Category:  "Work",
		DueDate:   &due,
	}

	env, err := EncodeEvent(in)
	if err != nil {
		t.Fatalf("EncodeEvent returned error: %v", err)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	var stored Envelope
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	out, err := DecodeEvent(stored)
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	got, ok := out.(TodoAdded)
	if !ok {
		t.Fatalf("expected TodoAdded, got %T", out)
	}
	if got.ID != "evt-1" || got.GUID != "guid-1" || got.Name != "Write report" || got.Category != "Work" {
		t.Fatalf("unexpected decoded event: %+v", got)
	}
	if !got.At.Equal(at) {
		t.Fatalf("timestamp lost precision: got %s want %s", got.At, at)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due date lost precision: got %v want %s", got.DueDate, due)
	}
}

func TestEncodeEvent_UsesOriginalPayloadNames(t *testing.T) {
	env, err := EncodeEvent(TaskLogged{
		EventMeta: EventMeta{ID: "evt-2", At: time.Unix(10, 0).UTC()},
		GUID:      "guid-2",
		TaskDelta: 1500,
	})
	if err != nil {
		t.Fatalf("EncodeEvent returned error: %v", err)
	}
	if env.Type != "TaskLogged" {
		t.Fatalf("unexpected type %q", env.Type)
	}
	var fields map[string]any
	if err := json.Unmarshal(env.Payload, &fields); err != nil {
		t.Fatalf("payload is not an object: %v", err)
	}
	if fields["GUID"] != "guid-2" || fields["taskDelta"] != float64(1500) {
		t.Fatalf("unexpected payload fields: %v", fields)
	}
	if _, ok := fields["ID"]; ok {
		t.Fatalf("event meta leaked into payload: %v", fields)
	}
}

func TestTodoAdded_AbsentDueDateStaysUnset(t *testing.T) {
	env := Envelope{
		ID:        "evt-3",
		Type:      string(EventTodoAdded),
		Timestamp: time.Unix(20, 0).UTC(),
		Payload:   json.RawMessage(`{"GUID":"g","name":"n"}`),
	}
	out, err := DecodeEvent(env)
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	if due := out.(TodoAdded).DueDate; due != nil {
		t.Fatalf("expected nil due date, got %s", due)
	}
}

func TestDecodeEvent_UnknownKind(t *testing.T) {
	_, err := DecodeEvent(Envelope{Type: "TodoDeleted", Timestamp: time.Now()})
	if !errors.Is(err, ErrUnknownEventKind) {
		t.Fatalf("expected ErrUnknownEventKind, got %v", err)
	}
}

func TestDecodeEvent_InvalidPayload(t *testing.T) {
	_, err := DecodeEvent(Envelope{
		Type:      string(EventCategoryAdded),
		Timestamp: time.Now(),
		Payload:   json.RawMessage(`{"name":`),
	})
	if !errors.Is(err, ErrInvalidEventPayload) {
		t.Fatalf("expected ErrInvalidEventPayload, got %v", err)
	}
}

func TestDecodeEvent_EveryKind(t *testing.T) {
	for _, kind := range EventKinds() {
		t.Run(string(kind), func(t *testing.T) {
			out, err := DecodeEvent(Envelope{
				ID:        "evt",
				Type:      string(kind),
				Timestamp: time.Unix(30, 0).UTC(),
				Payload:   json.RawMessage(`{}`),
			})
			if err != nil {
				t.Fatalf("DecodeEvent returned error: %v", err)
			}
			if out.Kind() != kind {
				t.Fatalf("decoded kind %q, want %q", out.Kind(), kind)
			}
			if out.EventID() != "evt" {
				t.Fatalf("event id not restored: %q", out.EventID())
			}
		})
	}
}

func TestDecodeCommand_EveryKind(t *testing.T) {
	for _, kind := range CommandKinds() {
		t.Run(string(kind), func(t *testing.T) {
			payload := `{}`
			if kind == CommandScheduleTodo {
				payload = `{"GUID":"g","scheduled":"Daily"}`
			}
			at := time.Unix(40, 0).UTC()
			out, err := DecodeCommand(Envelope{
				Type:      string(kind),
				Timestamp: at,
				Payload:   json.RawMessage(payload),
			})
			if err != nil {
				t.Fatalf("DecodeCommand returned error: %v", err)
			}
			if out.Kind() != kind || !out.MessageTime().Equal(at) {
				t.Fatalf("unexpected command %+v", out)
			}
		})
	}
}

func TestDecodeCommand_RejectsUnknownFrequency(t *testing.T) {
	_, err := DecodeCommand(Envelope{
		Type:      string(CommandScheduleTodo),
		Timestamp: time.Now(),
		Payload:   json.RawMessage(`{"GUID":"g","scheduled":"Hourly"}`),
	})
	if !errors.Is(err, ErrInvalidCommandPayload) {
		t.Fatalf("expected ErrInvalidCommandPayload, got %v", err)
	}
}

func TestDecodeCommand_RequiresTimestamp(t *testing.T) {
	_, err := DecodeCommand(Envelope{Type: string(CommandStopLog)})
	if !errors.Is(err, ErrInvalidCommandPayload) {
		t.Fatalf("expected ErrInvalidCommandPayload, got %v", err)
	}
}

func TestCommandAndEventKindsDoNotOverlap(t *testing.T) {
	seen := map[string]bool{}
	for _, kind := range CommandKinds() {
		seen[string(kind)] = true
	}
	for _, kind := range EventKinds() {
		if seen[string(kind)] {
			t.Fatalf("kind %q is both a command and an event", kind)
		}
	}
}
