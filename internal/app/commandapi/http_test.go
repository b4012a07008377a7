package commandapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/contracts"
)

func newTestRouter(t *testing.T) (http.Handler, *journal.Journal) {
	t.Helper()
	j := newOpenJournal(t)
	h := NewHandler(newTestService(j), j.Feed(), j.Metrics().Handler(), []string{"http://localhost:3000"})
	return h.Router(), j
}

func postCommand(t *testing.T, router http.Handler, kind contracts.CommandKind, payload string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]any{"type": string(kind), "payload": json.RawMessage(payload)})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCommandsEndpoint_AcceptAndReject(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postCommand(t, router, contracts.CommandAddCategory, `{"name":"Work"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[CommandResponse](t, rec)
	if resp.Event == nil || resp.Event.Type != string(contracts.EventCategoryAdded) {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = postCommand(t, router, contracts.CommandAddCategory, `{"name":"Work"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCommandsEndpoint_BadRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken JSON, got %d", rec.Code)
	}

	rec = postCommand(t, router, "Rename Everything", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", rec.Code)
	}

	rec = postCommand(t, router, contracts.CommandMarkTodoComplete, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing GUID, got %d", rec.Code)
	}
}

func TestCommandsEndpoint_JournalNotOpen(t *testing.T) {
	h := NewHandler(newTestService(&fakeJournal{err: journal.ErrNotOpen}), nil, nil, nil)

	rec := postCommand(t, h.Router(), contracts.CommandAddCategory, `{"name":"Work"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestQueryEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	postCommand(t, router, contracts.CommandAddCategory, `{"name":"Work"}`)
	postCommand(t, router, contracts.CommandAddNote, `{"name":"Idea","text":"Try chi","category":"Work"}`)
	added := decodeBody[CommandResponse](t, postCommand(t, router, contracts.CommandAddTodo, `{"name":"Ship","category":"Work"}`))
	postCommand(t, router, contracts.CommandAddTodo, `{"name":"Review","category":"Work"}`)

	var todo contracts.TodoAdded
	if err := json.Unmarshal(added.Event.Payload, &todo); err != nil {
		t.Fatalf("decode event payload: %v", err)
	}
	postCommand(t, router, contracts.CommandMarkTodoComplete, `{"GUID":"`+todo.GUID+`"}`)

	if got := decodeBody[[]string](t, get(router, "/api/v1/categories")); len(got) != 1 || got[0] != "Work" {
		t.Fatalf("unexpected categories: %v", got)
	}
	if got := decodeBody[[]readmodel.Note](t, get(router, "/api/v1/notes")); len(got) != 1 || got[0].Text != "Try chi" {
		t.Fatalf("unexpected notes: %+v", got)
	}
	if got := decodeBody[[]readmodel.Todo](t, get(router, "/api/v1/todos")); len(got) != 2 {
		t.Fatalf("expected 2 todos, got %+v", got)
	}
	open := decodeBody[[]readmodel.Todo](t, get(router, "/api/v1/todos?open=true"))
	if len(open) != 1 || open[0].Name != "Review" {
		t.Fatalf("unexpected open todos: %+v", open)
	}
	if got := decodeBody[[]readmodel.Entry](t, get(router, "/api/v1/timeline")); len(got) != 3 {
		t.Fatalf("expected 3 timeline entries, got %+v", got)
	}

	rec := get(router, "/api/v1/entities/"+todo.GUID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	entity := decodeBody[readmodel.Entity](t, rec)
	if entity.Kind != readmodel.KindTodo || entity.Todo == nil || !entity.Todo.Complete {
		t.Fatalf("unexpected entity: %+v", entity)
	}
	if rec := get(router, "/api/v1/entities/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestQueryEndpoints_EmptyJournalReturnsArrays(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/categories", "/api/v1/notes", "/api/v1/todos", "/api/v1/todos?open=true", "/api/v1/tasks", "/api/v1/timeline"} {
		rec := get(router, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Fatalf("%s: expected [], got %s", path, got)
		}
	}
}

func TestResetDailyEndpoint(t *testing.T) {
	router, j := newTestRouter(t)

	added := decodeBody[CommandResponse](t, postCommand(t, router, contracts.CommandAddTodo, `{"name":"Stretch"}`))
	var todo contracts.TodoAdded
	if err := json.Unmarshal(added.Event.Payload, &todo); err != nil {
		t.Fatalf("decode event payload: %v", err)
	}
	postCommand(t, router, contracts.CommandScheduleTodo, `{"GUID":"`+todo.GUID+`","scheduled":"Daily"}`)
	postCommand(t, router, contracts.CommandMarkTodoComplete, `{"GUID":"`+todo.GUID+`"}`)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/reset-daily", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[map[string]int](t, rec); got["reset"] != 1 {
		t.Fatalf("expected one reset, got %v", got)
	}

	var open []readmodel.Todo
	j.View(func(p *readmodel.Projection) { open = p.OpenTodos() })
	if len(open) != 1 || open[0].DueDate == nil || !open[0].DueDate.Equal(fixedNow) {
		t.Fatalf("unexpected todos after reset: %+v", open)
	}
}

func TestHealthMetricsAndTimeline(t *testing.T) {
	router, _ := newTestRouter(t)
	postCommand(t, router, contracts.CommandAddNote, `{"name":"Morning pages"}`)

	if rec := get(router, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}

	rec := get(router, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "journal_notes 1") {
		t.Fatalf("unexpected metrics:\n%s", rec.Body.String())
	}

	rec = get(router, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Morning pages") {
		t.Fatalf("unexpected timeline page:\n%s", rec.Body.String())
	}

	if rec := get(router, "/static/styles.css"); rec.Code != http.StatusOK {
		t.Fatalf("expected styles, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/commands", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}
