package journal

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bullet-productivity/journal/internal/app/eventstore"
	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/app/writemodel"
	"github.com/bullet-productivity/journal/internal/contracts"
)

func at(min int) contracts.CommandMeta {
	return contracts.CommandMeta{At: time.Date(2026, 2, 10, 9, min, 0, 0, time.UTC)}
}

func openJournal(t *testing.T, repo eventstore.Repository) *Journal {
	t.Helper()
	j := New(repo)
	if _, err := j.Open(context.Background()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	return j
}

func mustExecute(t *testing.T, j *Journal, cmd contracts.Command) writemodel.Outcome {
	t.Helper()
	outcome, err := j.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute(%s) returned error: %v", cmd.Kind(), err)
	}
	return outcome
}

func snapshot(t *testing.T, j *Journal) string {
	t.Helper()
	var snap readmodel.Snapshot
	j.View(func(p *readmodel.Projection) { snap = p.Snapshot() })
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return string(raw)
}

func todos(j *Journal) []readmodel.Todo {
	var out []readmodel.Todo
	j.View(func(p *readmodel.Projection) { out = p.Todos() })
	return out
}

func TestScenario_CategoryTodoComplete(t *testing.T) {
	j := openJournal(t, eventstore.NewMemoryRepository())

	mustExecute(t, j, contracts.AddCategory{CommandMeta: at(0), Name: "Work"})
	var categories []string
	j.View(func(p *readmodel.Projection) { categories = p.Categories() })
	if len(categories) != 1 || categories[0] != "Work" {
		t.Fatalf("expected [Work], got %v", categories)
	}

	outcome := mustExecute(t, j, contracts.AddTodo{CommandMeta: at(1), Category: "Work", Name: "Write report"})
	if outcome.Response != contracts.Success || outcome.Event == nil {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	list := todos(j)
	if len(list) != 1 || list[0].Complete {
		t.Fatalf("unexpected todos: %+v", list)
	}
	if added := outcome.Event.(contracts.TodoAdded); added.GUID != list[0].GUID {
		t.Fatalf("event GUID %s does not match projected %s", added.GUID, list[0].GUID)
	}

	mustExecute(t, j, contracts.MarkTodoComplete{CommandMeta: at(2), GUID: list[0].GUID})
	list = todos(j)
	if !list[0].Complete || list[0].DueDate != nil {
		t.Fatalf("expected completed todo without due date, got %+v", list[0])
	}
}

func TestRejectedCommandLeavesLogUntouched(t *testing.T) {
	repo := eventstore.NewMemoryRepository()
	j := openJournal(t, repo)

	mustExecute(t, j, contracts.AddCategory{CommandMeta: at(0), Name: "Work"})
	outcome := mustExecute(t, j, contracts.AddCategory{CommandMeta: at(1), Name: "Work"})
	if outcome.Response != contracts.Failure || outcome.Notice != writemodel.NoticeCategoryAlreadyExists {
		t.Fatalf("expected duplicate rejection, got %+v", outcome)
	}

	stopped := mustExecute(t, j, contracts.StopLog{CommandMeta: at(2)})
	if stopped.Response != contracts.Failure || stopped.Notice != writemodel.NoticeTaskLogNeverStarted {
		t.Fatalf("expected stop rejection, got %+v", stopped)
	}

	records, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one stored event, got %d", len(records))
	}
}

func TestLogSession(t *testing.T) {
	j := openJournal(t, eventstore.NewMemoryRepository())
	outcome := mustExecute(t, j, contracts.AddTodo{CommandMeta: at(0), Name: "Deep work", Category: "Work"})
	guid := outcome.Event.(contracts.TodoAdded).GUID

	started := mustExecute(t, j, contracts.StartLog{CommandMeta: at(10), GUID: guid})
	if started.Response != contracts.Success || started.Notice != writemodel.NoticeTaskStarted || started.Event != nil {
		t.Fatalf("unexpected start outcome: %+v", started)
	}
	if active, since, ok := j.ActiveLog(); !ok || active != guid || !since.Equal(at(10).At) {
		t.Fatalf("unexpected active log: %s %s %v", active, since, ok)
	}

	stopped := mustExecute(t, j, contracts.StopLog{CommandMeta: at(55)})
	logged, ok := stopped.Event.(contracts.TaskLogged)
	if !ok {
		t.Fatalf("expected TaskLogged, got %+v", stopped)
	}
	if logged.Duration() != 45*time.Minute || !logged.At.Equal(at(10).At) {
		t.Fatalf("unexpected task event: %+v", logged)
	}

	var tasks []readmodel.Task
	j.View(func(p *readmodel.Projection) { tasks = p.TasksFor(guid) })
	if len(tasks) != 1 || tasks[0].Name != "Deep work" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestExecuteBeforeOpen(t *testing.T) {
	j := New(eventstore.NewMemoryRepository())
	_, err := j.Execute(context.Background(), contracts.AddCategory{CommandMeta: at(0), Name: "Work"})
	if !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	if _, err := j.Open(context.Background()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := j.Open(context.Background()); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestRestartRebuildsStateFromLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	newRepo := func() eventstore.Repository {
		repo, err := eventstore.NewJSONLRepository(path)
		if err != nil {
			t.Fatalf("NewJSONLRepository returned error: %v", err)
		}
		return repo
	}

	first := openJournal(t, newRepo())
	mustExecute(t, first, contracts.AddCategory{CommandMeta: at(0), Name: "Work"})
	due := at(90).At
	added := mustExecute(t, first, contracts.AddTodo{CommandMeta: at(1), Name: "Ship", Category: "Work", DueDate: &due})
	guid := added.Event.(contracts.TodoAdded).GUID
	mustExecute(t, first, contracts.ScheduleTodo{CommandMeta: at(2), GUID: guid, Scheduled: contracts.FrequencyDaily})
	mustExecute(t, first, contracts.AddNote{CommandMeta: at(3), Name: "Idea", Text: "later"})
	mustExecute(t, first, contracts.StartLog{CommandMeta: at(4), GUID: guid})
	mustExecute(t, first, contracts.StopLog{CommandMeta: at(6)})
	want := snapshot(t, first)
	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	second := New(newRepo())
	played, err := second.Open(context.Background())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if played != 5 {
		t.Fatalf("expected 5 events replayed, got %d", played)
	}
	if got := snapshot(t, second); got != want {
		t.Fatalf("replayed state differs:\nwant %s\ngot  %s", want, got)
	}

	outcome := mustExecute(t, second, contracts.AddCategory{CommandMeta: at(7), Name: "Work"})
	if outcome.Notice != writemodel.NoticeCategoryAlreadyExists {
		t.Fatalf("category cache must survive restart, got %+v", outcome)
	}
}

func TestReplayTwiceIsDeterministic(t *testing.T) {
	repo := eventstore.NewMemoryRepository()
	live := openJournal(t, repo)
	mustExecute(t, live, contracts.AddCategory{CommandMeta: at(0), Name: "Home"})
	added := mustExecute(t, live, contracts.AddTodo{CommandMeta: at(1), Name: "Laundry", Category: "Home"})
	guid := added.Event.(contracts.TodoAdded).GUID
	mustExecute(t, live, contracts.MarkTodoComplete{CommandMeta: at(2), GUID: guid})
	mustExecute(t, live, contracts.MarkTodoIncomplete{CommandMeta: at(3), GUID: guid})
	mustExecute(t, live, contracts.ChangeTodoTitle{CommandMeta: at(4), GUID: guid, Name: "Fold laundry"})

	first := snapshot(t, openJournal(t, repo))
	second := snapshot(t, openJournal(t, repo))
	if first != second {
		t.Fatalf("replays diverged:\n%s\n%s", first, second)
	}
	if live := snapshot(t, live); live != first {
		t.Fatalf("replay differs from live state:\n%s\n%s", live, first)
	}
}

func TestResetDailyTodos(t *testing.T) {
	j := openJournal(t, eventstore.NewMemoryRepository())
	daily := mustExecute(t, j, contracts.AddTodo{CommandMeta: at(0), Name: "Stretch"}).Event.(contracts.TodoAdded).GUID
	once := mustExecute(t, j, contracts.AddTodo{CommandMeta: at(1), Name: "Taxes"}).Event.(contracts.TodoAdded).GUID
	open := mustExecute(t, j, contracts.AddTodo{CommandMeta: at(2), Name: "Read"}).Event.(contracts.TodoAdded).GUID

	mustExecute(t, j, contracts.ScheduleTodo{CommandMeta: at(3), GUID: daily, Scheduled: contracts.FrequencyDaily})
	mustExecute(t, j, contracts.ScheduleTodo{CommandMeta: at(3), GUID: open, Scheduled: contracts.FrequencyDaily})
	mustExecute(t, j, contracts.MarkTodoComplete{CommandMeta: at(4), GUID: daily})
	mustExecute(t, j, contracts.MarkTodoComplete{CommandMeta: at(4), GUID: once})

	now := time.Date(2026, 2, 11, 6, 0, 0, 0, time.UTC)
	reset, err := j.ResetDailyTodos(context.Background(), now)
	if err != nil {
		t.Fatalf("ResetDailyTodos returned error: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected one todo reset, got %d", reset)
	}

	byGUID := map[string]readmodel.Todo{}
	for _, todo := range todos(j) {
		byGUID[todo.GUID] = todo
	}
	if got := byGUID[daily]; got.Complete || got.DueDate == nil || !got.DueDate.Equal(now) {
		t.Fatalf("daily todo not reset: %+v", got)
	}
	if got := byGUID[once]; !got.Complete {
		t.Fatalf("one-off todo must stay complete: %+v", got)
	}
	if got := byGUID[open]; got.Complete || got.DueDate != nil {
		t.Fatalf("open daily todo must be untouched: %+v", got)
	}
}

func TestMetricsTrackCommandsAndProjection(t *testing.T) {
	j := openJournal(t, eventstore.NewMemoryRepository())
	mustExecute(t, j, contracts.AddCategory{CommandMeta: at(0), Name: "Work"})
	mustExecute(t, j, contracts.AddCategory{CommandMeta: at(1), Name: "Work"})
	mustExecute(t, j, contracts.AddTodo{CommandMeta: at(2), Name: "A"})

	var sb strings.Builder
	if _, err := j.Metrics().WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo returned error: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		`journal_commands_total{kind="Add a new Category",response="Success"} 1`,
		`journal_commands_total{kind="Add a new Category",response="Failure"} 1`,
		"journal_categories 1",
		"journal_open_todos 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics:\n%s", want, out)
		}
	}
}

func TestFeedReceivesPersistedEventsOnly(t *testing.T) {
	j := openJournal(t, eventstore.NewMemoryRepository())
	events, unsubscribe := j.Feed().Subscribe()
	defer unsubscribe()

	mustExecute(t, j, contracts.AddCategory{CommandMeta: at(0), Name: "Work"})
	mustExecute(t, j, contracts.AddCategory{CommandMeta: at(1), Name: "Work"})
	mustExecute(t, j, contracts.StartLog{CommandMeta: at(2), GUID: "todo-1"})

	select {
	case env := <-events:
		if env.Type != string(contracts.EventCategoryAdded) {
			t.Fatalf("unexpected event %+v", env)
		}
	default:
		t.Fatal("expected CategoryAdded on the feed")
	}
	select {
	case env := <-events:
		t.Fatalf("rejections and notices must not reach the feed, got %+v", env)
	default:
	}
}
