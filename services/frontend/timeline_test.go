package frontend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bullet-productivity/journal/internal/app/readmodel"
)

func TestTimelinePage_RendersNewestFirstAndEscapes(t *testing.T) {
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	snap := readmodel.Snapshot{
		Categories: []string{"Work", "<b>Home</b>"},
		Notes:      []readmodel.Note{{GUID: "n1", Name: "First note", Created: at}},
		Todos:      []readmodel.Todo{{GUID: "t1", Name: "Ship <it>", Created: at.Add(time.Minute), Complete: true}},
		Tasks:      []readmodel.Task{{GUID: "t1", Name: "Ship <it>", TaskDelta: 90_000, Started: at.Add(2 * time.Minute)}},
		Timeline: []readmodel.Entry{
			{Kind: readmodel.KindNote, GUID: "n1", At: at},
			{Kind: readmodel.KindTodo, GUID: "t1", At: at.Add(time.Minute)},
			{Kind: readmodel.KindTask, GUID: "t1", At: at.Add(2 * time.Minute), Task: 0},
		},
	}

	var sb strings.Builder
	if err := TimelinePage(snap).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	html := sb.String()

	if strings.Contains(html, "<b>Home</b>") || !strings.Contains(html, "&lt;b&gt;Home&lt;/b&gt;") {
		t.Fatalf("category not escaped:\n%s", html)
	}
	task := strings.Index(html, `<span class="kind">task</span>`)
	note := strings.Index(html, `<span class="kind">note</span>`)
	if task < 0 || note < 0 || task > note {
		t.Fatalf("expected newest entry first:\n%s", html)
	}
	if !strings.Contains(html, `<li class="done">`) || !strings.Contains(html, "1m30s") {
		t.Fatalf("missing completion or duration:\n%s", html)
	}
}

func TestTimelinePage_Empty(t *testing.T) {
	rec := httptest.NewRecorder()
	handlerFor(readmodel.Snapshot{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nothing recorded yet.") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestStaticHandler_ServesStyles(t *testing.T) {
	rec := httptest.NewRecorder()
	StaticHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/styles.css", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), ".timeline") {
		t.Fatalf("unexpected response %d:\n%s", rec.Code, rec.Body.String())
	}
}

func handlerFor(snap readmodel.Snapshot) http.Handler {
	return TimelineHandler(func() readmodel.Snapshot { return snap })
}

func TestTimelineItems_SkipsMissingTargets(t *testing.T) {
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	due := at.Add(24 * time.Hour)
	snap := readmodel.Snapshot{
		Todos: []readmodel.Todo{{GUID: "t1", Name: "Ship", Category: "Work", DueDate: &due}},
		Timeline: []readmodel.Entry{
			{Kind: readmodel.KindNote, GUID: "gone", At: at},
			{Kind: readmodel.KindTodo, GUID: "t1", At: at.Add(time.Minute)},
			{Kind: readmodel.KindTask, GUID: "t1", At: at.Add(2 * time.Minute), Task: 3},
		},
	}

	items := timelineItems(snap)
	if len(items) != 1 || items[0].Kind != "todo" || items[0].Done {
		t.Fatalf("unexpected items: %+v", items)
	}
	if want := "Work · due " + due.Format(timestampLayout); items[0].Meta != want {
		t.Fatalf("expected meta %q, got %q", want, items[0].Meta)
	}
}
