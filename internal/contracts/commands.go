package contracts

import "time"

// Command is a requested state change. The set of implementations is closed:
// only the variants in this file satisfy it.
type Command interface {
	Message
	Kind() CommandKind
	command()
}

// CommandMeta carries the client-clock timestamp assigned when the command was created.
type CommandMeta struct {
	At time.Time `json:"-"`
}

// MessageTime returns the command's creation timestamp.
func (m CommandMeta) MessageTime() time.Time { return m.At }

type AddCategory struct {
	CommandMeta
	Name string `json:"name"`
}

type AddNote struct {
	CommandMeta
	Name     string `json:"name"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

type AddTodo struct {
	CommandMeta
	Name     string     `json:"name"`
	Text     string     `json:"text"`
	Category string     `json:"category"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

type MarkTodoComplete struct {
	CommandMeta
	GUID string `json:"GUID"`
}

type MarkTodoIncomplete struct {
	CommandMeta
	GUID string `json:"GUID"`
}

type UpdateTodoDueDate struct {
	CommandMeta
	GUID    string    `json:"GUID"`
	DueDate time.Time `json:"dueDate"`
}

type ScheduleTodo struct {
	CommandMeta
	GUID      string    `json:"GUID"`
	Scheduled Frequency `json:"scheduled"`
}

// StartLog opens a work session on the todo identified by GUID.
type StartLog struct {
	CommandMeta
	GUID string `json:"GUID"`
}

// StopLog closes the open work session; it names no todo because only one
// session can be open.
type StopLog struct {
	CommandMeta
}

type UpdateNoteText struct {
	CommandMeta
	GUID string `json:"GUID"`
	Text string `json:"text"`
}

type UpdateNoteCategory struct {
	CommandMeta
	GUID     string `json:"GUID"`
	Category string `json:"category"`
}

type ChangeTodoCategory struct {
	CommandMeta
	GUID     string `json:"GUID"`
	Category string `json:"category"`
}

type ChangeTodoTitle struct {
	CommandMeta
	GUID string `json:"GUID"`
	Name string `json:"name"`
}

type ChangeTodoDescription struct {
	CommandMeta
	GUID string `json:"GUID"`
	Text string `json:"text"`
}

func (AddCategory) Kind() CommandKind           { return CommandAddCategory }
func (AddNote) Kind() CommandKind               { return CommandAddNote }
func (AddTodo) Kind() CommandKind               { return CommandAddTodo }
func (MarkTodoComplete) Kind() CommandKind      { return CommandMarkTodoComplete }
func (MarkTodoIncomplete) Kind() CommandKind    { return CommandMarkTodoIncomplete }
func (UpdateTodoDueDate) Kind() CommandKind     { return CommandUpdateTodoDueDate }
func (ScheduleTodo) Kind() CommandKind          { return CommandScheduleTodo }
func (StartLog) Kind() CommandKind              { return CommandStartLog }
func (StopLog) Kind() CommandKind               { return CommandStopLog }
func (UpdateNoteText) Kind() CommandKind        { return CommandUpdateNoteText }
func (UpdateNoteCategory) Kind() CommandKind    { return CommandUpdateNoteCategory }
func (ChangeTodoCategory) Kind() CommandKind    { return CommandChangeTodoCategory }
func (ChangeTodoTitle) Kind() CommandKind       { return CommandChangeTodoTitle }
func (ChangeTodoDescription) Kind() CommandKind { return CommandChangeTodoDescription }

func (c AddCategory) MessageType() string           { return string(c.Kind()) }
func (c AddNote) MessageType() string               { return string(c.Kind()) }
func (c AddTodo) MessageType() string               { return string(c.Kind()) }
func (c MarkTodoComplete) MessageType() string      { return string(c.Kind()) }
func (c MarkTodoIncomplete) MessageType() string    { return string(c.Kind()) }
func (c UpdateTodoDueDate) MessageType() string     { return string(c.Kind()) }
func (c ScheduleTodo) MessageType() string          { return string(c.Kind()) }
func (c StartLog) MessageType() string              { return string(c.Kind()) }
func (c StopLog) MessageType() string               { return string(c.Kind()) }
func (c UpdateNoteText) MessageType() string        { return string(c.Kind()) }
func (c UpdateNoteCategory) MessageType() string    { return string(c.Kind()) }
func (c ChangeTodoCategory) MessageType() string    { return string(c.Kind()) }
func (c ChangeTodoTitle) MessageType() string       { return string(c.Kind()) }
func (c ChangeTodoDescription) MessageType() string { return string(c.Kind()) }

func (AddCategory) command()           {}
func (AddNote) command()               {}
func (AddTodo) command()               {}
func (MarkTodoComplete) command()      {}
func (MarkTodoIncomplete) command()    {}
func (UpdateTodoDueDate) command()     {}
func (ScheduleTodo) command()          {}
func (StartLog) command()              {}
func (StopLog) command()               {}
func (UpdateNoteText) command()        {}
func (UpdateNoteCategory) command()    {}
func (ChangeTodoCategory) command()    {}
func (ChangeTodoTitle) command()       {}
func (ChangeTodoDescription) command() {}
