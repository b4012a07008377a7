package frontend

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/bullet-productivity/journal/internal/app/readmodel"
)

//go:generate templ generate

const timestampLayout = "Mon 2 Jan 2006, 15:04"

// timelineItem is one rendered row of the timeline.
type timelineItem struct {
	Kind string
	Name string
	At   time.Time
	Meta string
	Done bool
}

func (i timelineItem) Datetime() string { return i.At.Format(time.RFC3339) }

func (i timelineItem) Display() string { return i.At.Format(timestampLayout) }

// TimelineHandler renders a fresh snapshot on every request.
func TimelineHandler(snapshot func() readmodel.Snapshot) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		templ.Handler(TimelinePage(snapshot())).ServeHTTP(w, r)
	})
}

func summary(snap readmodel.Snapshot) string {
	return fmt.Sprintf("%d todos, %d notes, %d logged sessions", len(snap.Todos), len(snap.Notes), len(snap.Tasks))
}

// timelineItems resolves timeline entries newest first. Entries whose target
// is missing from the snapshot are skipped.
func timelineItems(snap readmodel.Snapshot) []timelineItem {
	notes := make(map[string]readmodel.Note, len(snap.Notes))
	for _, note := range snap.Notes {
		notes[note.GUID] = note
	}
	todos := make(map[string]readmodel.Todo, len(snap.Todos))
	for _, todo := range snap.Todos {
		todos[todo.GUID] = todo
	}

	items := make([]timelineItem, 0, len(snap.Timeline))
	for i := len(snap.Timeline) - 1; i >= 0; i-- {
		entry := snap.Timeline[i]
		switch entry.Kind {
		case readmodel.KindNote:
			note, ok := notes[entry.GUID]
			if !ok {
				continue
			}
			items = append(items, timelineItem{Kind: "note", Name: note.Name, At: entry.At, Meta: note.Category})
		case readmodel.KindTodo:
			todo, ok := todos[entry.GUID]
			if !ok {
				continue
			}
			meta := todo.Category
			if todo.DueDate != nil {
				meta = strings.TrimSpace(meta + " · due " + todo.DueDate.Format(timestampLayout))
			}
			items = append(items, timelineItem{Kind: "todo", Name: todo.Name, At: entry.At, Meta: meta, Done: todo.Complete})
		case readmodel.KindTask:
			if entry.Task < 0 || entry.Task >= len(snap.Tasks) {
				continue
			}
			task := snap.Tasks[entry.Task]
			items = append(items, timelineItem{Kind: "task", Name: task.Name, At: entry.At, Meta: task.Duration().Round(time.Second).String()})
		}
	}
	return items
}
