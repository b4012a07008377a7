package contracts

import "time"

// Event is a validated fact. Like Command, the set of implementations is closed.
type Event interface {
	Message
	Kind() EventKind
	EventID() string
	event()
}

// EventMeta identifies a single log record. At is the timestamp of the command
// that produced the event, not the time it was persisted.
type EventMeta struct {
	ID string    `json:"-"`
	At time.Time `json:"-"`
}

func (m EventMeta) EventID() string        { return m.ID }
func (m EventMeta) MessageTime() time.Time { return m.At }

type CategoryAdded struct {
	EventMeta
	Name string `json:"name"`
}

type NoteAdded struct {
	EventMeta
	GUID     string `json:"GUID"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

type NoteTextUpdated struct {
	EventMeta
	GUID string `json:"GUID"`
	Text string `json:"text"`
}

type NoteCategoryUpdated struct {
	EventMeta
	GUID     string `json:"GUID"`
	Category string `json:"category"`
}

type TodoAdded struct {
	EventMeta
	GUID     string     `json:"GUID"`
	Name     string     `json:"name"`
	Text     string     `json:"text"`
	Category string     `json:"category"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

type TodoDueDateUpdated struct {
	EventMeta
	GUID    string    `json:"GUID"`
	DueDate time.Time `json:"dueDate"`
}

type TodoMarkedComplete struct {
	EventMeta
	GUID string `json:"GUID"`
}

type TodoMarkedIncomplete struct {
	EventMeta
	GUID string `json:"GUID"`
}

type TodoCategoryChanged struct {
	EventMeta
	GUID     string `json:"GUID"`
	Category string `json:"category"`
}

type TodoTitleChanged struct {
	EventMeta
	GUID string `json:"GUID"`
	Name string `json:"name"`
}

type TodoDescriptionChanged struct {
	EventMeta
	GUID string `json:"GUID"`
	Text string `json:"text"`
}

type TodoScheduled struct {
	EventMeta
	GUID      string    `json:"GUID"`
	Scheduled Frequency `json:"scheduled"`
}

// TaskLogged records a finished work session on a todo. At is the session start
// and TaskDelta its length in milliseconds.
type TaskLogged struct {
	EventMeta
	GUID      string `json:"GUID"`
	TaskDelta int64  `json:"taskDelta"`
}

// Duration returns TaskDelta as a time.Duration.
func (e TaskLogged) Duration() time.Duration {
	return time.Duration(e.TaskDelta) * time.Millisecond
}

func (CategoryAdded) Kind() EventKind          { return EventCategoryAdded }
func (NoteAdded) Kind() EventKind              { return EventNoteAdded }
func (NoteTextUpdated) Kind() EventKind        { return EventNoteTextUpdated }
func (NoteCategoryUpdated) Kind() EventKind    { return EventNoteCategoryUpdated }
func (TodoAdded) Kind() EventKind              { return EventTodoAdded }
func (TodoDueDateUpdated) Kind() EventKind     { return EventTodoDueDateUpdated }
func (TodoMarkedComplete) Kind() EventKind     { return EventTodoMarkedComplete }
func (TodoMarkedIncomplete) Kind() EventKind   { return EventTodoMarkedIncomplete }
func (TodoCategoryChanged) Kind() EventKind    { return EventTodoCategoryChanged }
func (TodoTitleChanged) Kind() EventKind       { return EventTodoTitleChanged }
func (TodoDescriptionChanged) Kind() EventKind { return EventTodoDescriptionChanged }
func (TodoScheduled) Kind() EventKind          { return EventTodoScheduled }
func (TaskLogged) Kind() EventKind             { return EventTaskLogged }

func (e CategoryAdded) MessageType() string          { return string(e.Kind()) }
func (e NoteAdded) MessageType() string              { return string(e.Kind()) }
func (e NoteTextUpdated) MessageType() string        { return string(e.Kind()) }
func (e NoteCategoryUpdated) MessageType() string    { return string(e.Kind()) }
func (e TodoAdded) MessageType() string              { return string(e.Kind()) }
func (e TodoDueDateUpdated) MessageType() string     { return string(e.Kind()) }
func (e TodoMarkedComplete) MessageType() string     { return string(e.Kind()) }
func (e TodoMarkedIncomplete) MessageType() string   { return string(e.Kind()) }
func (e TodoCategoryChanged) MessageType() string    { return string(e.Kind()) }
func (e TodoTitleChanged) MessageType() string       { return string(e.Kind()) }
func (e TodoDescriptionChanged) MessageType() string { return string(e.Kind()) }
func (e TodoScheduled) MessageType() string          { return string(e.Kind()) }
func (e TaskLogged) MessageType() string             { return string(e.Kind()) }

func (CategoryAdded) event()          {}
func (NoteAdded) event()              {}
func (NoteTextUpdated) event()        {}
func (NoteCategoryUpdated) event()    {}
func (TodoAdded) event()              {}
func (TodoDueDateUpdated) event()     {}
func (TodoMarkedComplete) event()     {}
func (TodoMarkedIncomplete) event()   {}
func (TodoCategoryChanged) event()    {}
func (TodoTitleChanged) event()       {}
func (TodoDescriptionChanged) event() {}
func (TodoScheduled) event()          {}
func (TaskLogged) event()             {}
