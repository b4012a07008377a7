// Package readmodel folds persisted events into the views the CLI and HTTP
// surfaces display. Notes and todos live in one GUID-keyed store; the ordered
// lists are derived from arrival-order indexes over that store.
package readmodel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bullet-productivity/journal/internal/contracts"
)

var ErrNotAnEvent = errors.New("message is not an event")

type EntryKind string

const (
	KindNote EntryKind = "note"
	KindTodo EntryKind = "todo"
	KindTask EntryKind = "task"
)

type Note struct {
	GUID     string    `json:"GUID"`
	Name     string    `json:"name"`
	Text     string    `json:"text"`
	Category string    `json:"category"`
	Created  time.Time `json:"timestamp"`
}

// A complete Todo has TimeCompleted set and no DueDate; an open one has no
// TimeCompleted.
type Todo struct {
	GUID          string              `json:"GUID"`
	Name          string              `json:"name"`
	Text          string              `json:"text"`
	Category      string              `json:"category"`
	Created       time.Time           `json:"timestamp"`
	DueDate       *time.Time          `json:"dueDate"`
	Complete      bool                `json:"complete"`
	TimeCompleted *time.Time          `json:"timeCompleted"`
	Scheduled     contracts.Frequency `json:"scheduled"`
}

// Task is one logged work session. GUID is the parent todo's; Name and
// Category are copied from the todo when the session is logged.
type Task struct {
	GUID      string    `json:"GUID"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	TaskDelta int64     `json:"taskDelta"`
	Started   time.Time `json:"timestamp"`
}

func (t Task) Duration() time.Duration {
	return time.Duration(t.TaskDelta) * time.Millisecond
}

// Entry is one timeline position. Task entries carry the index into Tasks(),
// since several tasks share a GUID.
type Entry struct {
	Kind EntryKind `json:"kind"`
	GUID string    `json:"GUID"`
	At   time.Time `json:"timestamp"`
	Task int       `json:"task,omitempty"`
}

// Entity is what Lookup finds for a GUID.
type Entity struct {
	Kind  EntryKind `json:"kind"`
	Note  *Note     `json:"note,omitempty"`
	Todo  *Todo     `json:"todo,omitempty"`
	Tasks []Task    `json:"tasks,omitempty"`
}

type Snapshot struct {
	Categories []string `json:"categories"`
	Notes      []Note   `json:"notes"`
	Todos      []Todo   `json:"todos"`
	Tasks      []Task   `json:"tasks"`
	Timeline   []Entry  `json:"timeline"`
}

type Stats struct {
	Categories int
	Notes      int
	Todos      int
	OpenTodos  int
	Tasks      int
}

// Projection is not safe for concurrent use; callers serialize access.
type Projection struct {
	categories  []string
	categorySet map[string]struct{}

	notes     map[string]*Note
	noteOrder []string
	todos     map[string]*Todo
	todoOrder []string

	tasks    []Task
	timeline []Entry
}

func New() *Projection {
	return &Projection{
		categorySet: map[string]struct{}{},
		notes:       map[string]*Note{},
		todos:       map[string]*Todo{},
	}
}

// HandleEvent is the PersistedEvents subscriber. Every event yields Success;
// events naming a GUID the projection has never seen are logged and ignored.
func (p *Projection) HandleEvent(_ context.Context, msg contracts.Message) (contracts.Response, error) {
	event, ok := msg.(contracts.Event)
	if !ok {
		return contracts.Failure, fmt.Errorf("%w: %T", ErrNotAnEvent, msg)
	}
	p.apply(event)
	return contracts.Success, nil
}

func (p *Projection) apply(event contracts.Event) {
	switch e := event.(type) {
	case contracts.CategoryAdded:
		if _, dup := p.categorySet[e.Name]; dup {
			log.Printf("readmodel: category %q already projected", e.Name)
			return
		}
		p.categorySet[e.Name] = struct{}{}
		p.categories = append(p.categories, e.Name)

	case contracts.NoteAdded:
		if p.known(e.GUID) {
			log.Printf("readmodel: %s reuses GUID %s", e.Kind(), e.GUID)
			return
		}
		p.notes[e.GUID] = &Note{GUID: e.GUID, Name: e.Name, Text: e.Text, Category: e.Category, Created: e.At}
		p.noteOrder = append(p.noteOrder, e.GUID)
		p.timeline = append(p.timeline, Entry{Kind: KindNote, GUID: e.GUID, At: e.At})

	case contracts.NoteTextUpdated:
		if note := p.note(e); note != nil {
			note.Text = e.Text
		}

	case contracts.NoteCategoryUpdated:
		if note := p.note(e); note != nil {
			note.Category = e.Category
		}

	case contracts.TodoAdded:
		if p.known(e.GUID) {
			log.Printf("readmodel: %s reuses GUID %s", e.Kind(), e.GUID)
			return
		}
		p.todos[e.GUID] = &Todo{
			GUID:      e.GUID,
			Name:      e.Name,
			Text:      e.Text,
			Category:  e.Category,
			Created:   e.At,
			DueDate:   copyTime(e.DueDate),
			Scheduled: contracts.FrequencyNever,
		}
		p.todoOrder = append(p.todoOrder, e.GUID)
		p.timeline = append(p.timeline, Entry{Kind: KindTodo, GUID: e.GUID, At: e.At})

	case contracts.TodoMarkedComplete:
		if todo := p.todo(e); todo != nil {
			completed := e.At
			todo.Complete = true
			todo.TimeCompleted = &completed
			todo.DueDate = nil
		}

	case contracts.TodoMarkedIncomplete:
		// The due date cleared on completion is not restored.
		if todo := p.todo(e); todo != nil {
			todo.Complete = false
			todo.TimeCompleted = nil
		}

	case contracts.TodoDueDateUpdated:
		todo := p.todo(e)
		if todo == nil {
			return
		}
		if todo.Complete {
			log.Printf("readmodel: %s ignored for completed todo %s", e.Kind(), e.GUID)
			return
		}
		due := e.DueDate
		todo.DueDate = &due

	case contracts.TodoScheduled:
		if todo := p.todo(e); todo != nil {
			todo.Scheduled = e.Scheduled
		}

	case contracts.TodoCategoryChanged:
		if todo := p.todo(e); todo != nil {
			todo.Category = e.Category
		}

	case contracts.TodoTitleChanged:
		if todo := p.todo(e); todo != nil {
			todo.Name = e.Name
		}

	case contracts.TodoDescriptionChanged:
		if todo := p.todo(e); todo != nil {
			todo.Text = e.Text
		}

	case contracts.TaskLogged:
		todo := p.todo(e)
		if todo == nil {
			return
		}
		p.tasks = append(p.tasks, Task{
			GUID:      todo.GUID,
			Name:      todo.Name,
			Category:  todo.Category,
			TaskDelta: e.TaskDelta,
			Started:   e.At,
		})
		p.timeline = append(p.timeline, Entry{Kind: KindTask, GUID: todo.GUID, At: e.At, Task: len(p.tasks) - 1})

	default:
		log.Printf("readmodel: no projection for %s (%s)", event.Kind(), event.EventID())
	}
}

func (p *Projection) known(guid string) bool {
	_, isNote := p.notes[guid]
	_, isTodo := p.todos[guid]
	return isNote || isTodo
}

func (p *Projection) todo(e contracts.Event) *Todo {
	guid := targetOf(e)
	todo, ok := p.todos[guid]
	if !ok {
		log.Printf("readmodel: %s references unknown todo %s (%s)", e.Kind(), guid, e.EventID())
		return nil
	}
	return todo
}

func (p *Projection) note(e contracts.Event) *Note {
	guid := targetOf(e)
	note, ok := p.notes[guid]
	if !ok {
		log.Printf("readmodel: %s references unknown note %s (%s)", e.Kind(), guid, e.EventID())
		return nil
	}
	return note
}

func targetOf(e contracts.Event) string {
	switch v := e.(type) {
	case contracts.NoteTextUpdated:
		return v.GUID
	case contracts.NoteCategoryUpdated:
		return v.GUID
	case contracts.TodoMarkedComplete:
		return v.GUID
	case contracts.TodoMarkedIncomplete:
		return v.GUID
	case contracts.TodoDueDateUpdated:
		return v.GUID
	case contracts.TodoScheduled:
		return v.GUID
	case contracts.TodoCategoryChanged:
		return v.GUID
	case contracts.TodoTitleChanged:
		return v.GUID
	case contracts.TodoDescriptionChanged:
		return v.GUID
	case contracts.TaskLogged:
		return v.GUID
	default:
		return ""
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
