package commandapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bullet-productivity/journal/internal/app/eventfeed"
	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/contracts"
	"github.com/bullet-productivity/journal/services/frontend"
)

type Handler struct {
	Service        *Service
	Feed           *eventfeed.Hub
	Metrics        http.Handler
	AllowedOrigins []string
}

func NewHandler(service *Service, feed *eventfeed.Hub, metrics http.Handler, allowedOrigins []string) *Handler {
	return &Handler{
		Service:        service,
		Feed:           feed,
		Metrics:        metrics,
		AllowedOrigins: allowedOrigins,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if len(h.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/commands", h.handleCommand)
		r.Post("/maintenance/reset-daily", h.handleResetDaily)

		r.Get("/categories", h.view(func(p *readmodel.Projection) any { return p.Categories() }))
		r.Get("/notes", h.view(func(p *readmodel.Projection) any { return p.Notes() }))
		r.Get("/todos", h.handleTodos)
		r.Get("/tasks", h.view(func(p *readmodel.Projection) any { return p.Tasks() }))
		r.Get("/timeline", h.view(func(p *readmodel.Projection) any { return p.Entries() }))
		r.Get("/entities/{guid}", h.handleEntity)
		if h.Feed != nil {
			r.Get("/events", h.handleEvents)
		}
	})

	r.Handle("/static/*", http.StripPrefix("/static/", frontend.StaticHandler()))
	r.Get("/", frontend.TimelineHandler(h.snapshot).ServeHTTP)

	return r
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	resp, err := h.Service.Accept(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTypeRequired), errors.Is(err, ErrNameRequired),
			errors.Is(err, ErrGUIDRequired), errors.Is(err, ErrDueDateRequired),
			errors.Is(err, contracts.ErrUnknownCommandKind), errors.Is(err, contracts.ErrInvalidCommandPayload):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, journal.ErrNotOpen):
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if resp.Status == "rejected" {
		h.writeJSON(w, http.StatusConflict, resp)
		return
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) handleResetDaily(w http.ResponseWriter, r *http.Request) {
	reset, err := h.Service.Journal.ResetDailyTodos(r.Context(), h.Service.Now())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"reset": reset})
}

func (h *Handler) handleTodos(w http.ResponseWriter, r *http.Request) {
	open := r.URL.Query().Get("open") == "true"
	var todos []readmodel.Todo
	h.Service.Journal.View(func(p *readmodel.Projection) {
		if open {
			todos = p.OpenTodos()
		} else {
			todos = p.Todos()
		}
	})
	h.writeJSON(w, http.StatusOK, todos)
}

func (h *Handler) handleEntity(w http.ResponseWriter, r *http.Request) {
	guid := chi.URLParam(r, "guid")
	var (
		entity readmodel.Entity
		found  bool
	)
	h.Service.Journal.View(func(p *readmodel.Projection) { entity, found = p.Lookup(guid) })
	if !found {
		h.writeError(w, http.StatusNotFound, "entity not found")
		return
	}
	h.writeJSON(w, http.StatusOK, entity)
}

func (h *Handler) view(pick func(p *readmodel.Projection) any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var payload any
		h.Service.Journal.View(func(p *readmodel.Projection) { payload = pick(p) })
		h.writeJSON(w, http.StatusOK, payload)
	}
}

func (h *Handler) snapshot() readmodel.Snapshot {
	var snap readmodel.Snapshot
	h.Service.Journal.View(func(p *readmodel.Projection) { snap = p.Snapshot() })
	return snap
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
