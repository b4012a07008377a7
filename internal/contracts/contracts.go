package contracts

import "time"

// Response is the acknowledgement a broker subscriber returns for a message.
type Response string

const (
	Success Response = "Success"
	Failure Response = "Failure"
)

// Message is anything that travels over the broker: a Command or an Event.
type Message interface {
	MessageType() string
	MessageTime() time.Time
}

// CommandKind names a user intent. Values are the wire strings of the journal's
// command log and never overlap with EventKind values.
type CommandKind string

const (
	CommandAddCategory           CommandKind = "Add a new Category"
	CommandAddNote               CommandKind = "Add a new Note"
	CommandAddTodo               CommandKind = "Add a new Todo"
	CommandMarkTodoComplete      CommandKind = "Mark Todo Complete"
	CommandMarkTodoIncomplete    CommandKind = "Mark Todo Incomplete"
	CommandUpdateTodoDueDate     CommandKind = "Update Todo Due Date"
	CommandScheduleTodo          CommandKind = "Schedule Todo"
	CommandStartLog              CommandKind = "Start logging a task"
	CommandStopLog               CommandKind = "Stop log"
	CommandUpdateNoteText        CommandKind = "Update Note Text"
	CommandUpdateNoteCategory    CommandKind = "Update Note Category"
	CommandChangeTodoCategory    CommandKind = "Change Todo Category"
	CommandChangeTodoTitle       CommandKind = "Change Todo Title"
	CommandChangeTodoDescription CommandKind = "Change Todo Description"
)

// EventKind names a fact recorded in the event log.
type EventKind string

const (
	EventCategoryAdded          EventKind = "CategoryAdded"
	EventNoteAdded              EventKind = "NoteAdded"
	EventNoteTextUpdated        EventKind = "NoteTextUpdated"
	EventNoteCategoryUpdated    EventKind = "NoteCategoryUpdated"
	EventTodoAdded              EventKind = "TodoAdded"
	EventTodoDueDateUpdated     EventKind = "TodoDueDateUpdated"
	EventTodoMarkedComplete     EventKind = "TodoMarkedComplete"
	EventTodoMarkedIncomplete   EventKind = "TodoMarkedIncomplete"
	EventTodoCategoryChanged    EventKind = "TodoCategoryChanged"
	EventTodoTitleChanged       EventKind = "TodoTitleChanged"
	EventTodoDescriptionChanged EventKind = "TodoDescriptionChanged"
	EventTodoScheduled          EventKind = "TodoScheduled"
	EventTaskLogged             EventKind = "TaskLogged"
)

// CommandKinds lists every command kind the write model accepts.
func CommandKinds() []CommandKind {
	return []CommandKind{
		CommandAddCategory,
		CommandAddNote,
		CommandAddTodo,
		CommandMarkTodoComplete,
		CommandMarkTodoIncomplete,
		CommandUpdateTodoDueDate,
		CommandScheduleTodo,
		CommandStartLog,
		CommandStopLog,
		CommandUpdateNoteText,
		CommandUpdateNoteCategory,
		CommandChangeTodoCategory,
		CommandChangeTodoTitle,
		CommandChangeTodoDescription,
	}
}

// EventKinds lists every event kind the log may contain.
func EventKinds() []EventKind {
	return []EventKind{
		EventCategoryAdded,
		EventNoteAdded,
		EventNoteTextUpdated,
		EventNoteCategoryUpdated,
		EventTodoAdded,
		EventTodoDueDateUpdated,
		EventTodoMarkedComplete,
		EventTodoMarkedIncomplete,
		EventTodoCategoryChanged,
		EventTodoTitleChanged,
		EventTodoDescriptionChanged,
		EventTodoScheduled,
		EventTaskLogged,
	}
}

// Frequency is how often a todo recurs.
type Frequency string

const (
	FrequencyNever Frequency = "Never"
	FrequencyDaily Frequency = "Daily"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyNever || f == FrequencyDaily
}
