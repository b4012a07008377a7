package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bullet-productivity/journal/internal/contracts"
	"github.com/bullet-productivity/journal/internal/platform/env"
	"github.com/bullet-productivity/journal/internal/platform/metrics"
)

type config struct {
	APIBase        string
	Workers        int
	Duration       time.Duration
	Interval       time.Duration
	RequestTimeout time.Duration
	StartupWait    time.Duration
	MetricsAddr    string
	EnableSSE      bool
}

type runner struct {
	cfg    config
	client *http.Client

	registry       *metrics.Registry
	requestsTotal  *metrics.CounterVec
	actionsTotal   *metrics.CounterVec
	eventsReceived *metrics.Counter
	activeWorkers  *metrics.Gauge

	requestsSuccess atomic.Int64
	requestsError   atomic.Int64
	workers         atomic.Int64

	mu    sync.Mutex
	todos []string
}

func main() {
	cfg := loadConfig()
	if cfg.Workers <= 0 {
		log.Fatal("LOADGEN_WORKERS must be > 0")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx := baseCtx
	if cfg.Duration > 0 {
		timeoutCtx, cancel := context.WithTimeout(baseCtx, cfg.Duration)
		defer cancel()
		ctx = timeoutCtx
	}

	r := newRunner(cfg, &http.Client{Timeout: cfg.RequestTimeout})
	go runMetricsServer(cfg.MetricsAddr, r.registry)

	if err := r.waitForAPI(ctx); err != nil {
		log.Fatalf("journal-api not ready: %v", err)
	}
	log.Printf("load generator started: workers=%d duration=%s interval=%s sse=%v",
		cfg.Workers, cfg.Duration, cfg.Interval, cfg.EnableSSE)

	go r.logProgress(ctx)
	r.run(ctx)

	log.Printf("load test complete: success_requests=%d error_requests=%d events_received=%.0f",
		r.requestsSuccess.Load(), r.requestsError.Load(), r.eventsReceived.Value())
}

func loadConfig() config {
	return config{
		APIBase:        strings.TrimRight(env.String("LOADGEN_API_BASE", "http://localhost:8080"), "/"),
		Workers:        env.Int("LOADGEN_WORKERS", 4),
		Duration:       env.Duration("LOADGEN_DURATION", time.Minute),
		Interval:       env.Duration("LOADGEN_INTERVAL", 200*time.Millisecond),
		RequestTimeout: env.Duration("LOADGEN_REQUEST_TIMEOUT", 10*time.Second),
		StartupWait:    env.Duration("LOADGEN_STARTUP_WAIT", 30*time.Second),
		MetricsAddr:    env.String("LOADGEN_METRICS_ADDR", ":9099"),
		EnableSSE:      env.String("LOADGEN_ENABLE_SSE", "true") == "true",
	}
}

func newRunner(cfg config, client *http.Client) *runner {
	r := &runner{
		cfg:      cfg,
		client:   client,
		registry: metrics.NewRegistry(),
		requestsTotal: metrics.NewCounterVec(metrics.Opts{
			Name: "journal_loadgen_requests_total",
			Help: "HTTP requests sent by the load generator.",
		}, []string{"status", "outcome"}),
		actionsTotal: metrics.NewCounterVec(metrics.Opts{
			Name: "journal_loadgen_actions_total",
			Help: "Journal actions executed by the load generator.",
		}, []string{"action", "outcome"}),
		eventsReceived: metrics.NewCounter(metrics.Opts{
			Name: "journal_loadgen_events_received_total",
			Help: "Events read from the live event stream.",
		}),
		activeWorkers: metrics.NewGauge(metrics.Opts{
			Name: "journal_loadgen_workers",
			Help: "Workers currently sending commands.",
		}),
	}
	r.registry.MustRegister(r.requestsTotal, r.actionsTotal, r.eventsReceived, r.activeWorkers)
	return r
}

// run drives cfg.Workers workers until ctx is done.
func (r *runner) run(ctx context.Context) {
	var wg sync.WaitGroup
	if r.cfg.EnableSSE {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.runSSELoop(ctx)
		}()
	}
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			r.runWorker(ctx, idx)
		}(i)
	}
	wg.Wait()
}

func (r *runner) waitForAPI(ctx context.Context) error {
	deadline := time.Now().Add(r.cfg.StartupWait)
	var lastErr error
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.APIBase+"/healthz", nil)
		if err != nil {
			return err
		}
		resp, err := r.client.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("status=%d", resp.StatusCode)
		}
		lastErr = err
		time.Sleep(time.Second)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout")
	}
	return lastErr
}

func (r *runner) runWorker(ctx context.Context, idx int) {
	r.activeWorkers.Set(float64(r.workers.Add(1)))
	defer func() { r.activeWorkers.Set(float64(r.workers.Add(-1))) }()

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(idx*7)))
	interval := r.cfg.Interval
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runAction(ctx, rng)
		}
	}
}

func (r *runner) runAction(ctx context.Context, rng *rand.Rand) {
	guid, hasTodo := r.randomTodo(rng)

	choice := rng.Float64()
	switch {
	case !hasTodo || choice < 0.40:
		r.action(ctx, "add_todo", contracts.CommandAddTodo, map[string]any{
			"name":     fmt.Sprintf("Load todo %d", rng.Intn(1_000_000)),
			"category": "Load",
		})
	case choice < 0.60:
		r.action(ctx, "complete", contracts.CommandMarkTodoComplete, map[string]any{"GUID": guid})
	case choice < 0.70:
		r.action(ctx, "reopen", contracts.CommandMarkTodoIncomplete, map[string]any{"GUID": guid})
	case choice < 0.85:
		r.action(ctx, "rename", contracts.CommandChangeTodoTitle, map[string]any{
			"GUID": guid,
			"name": fmt.Sprintf("Renamed todo %d", rng.Intn(1_000_000)),
		})
	default:
		r.action(ctx, "add_note", contracts.CommandAddNote, map[string]any{
			"name": fmt.Sprintf("Load note %d", rng.Intn(1_000_000)),
			"text": "generated",
		})
	}
}

type commandResponse struct {
	Status string              `json:"status"`
	Event  *contracts.Envelope `json:"event"`
}

func (r *runner) action(ctx context.Context, name string, kind contracts.CommandKind, payload map[string]any) {
	var resp commandResponse
	if err := r.postCommand(ctx, kind, payload, &resp); err != nil {
		r.actionsTotal.Inc(name, "error")
		return
	}
	if resp.Event != nil && resp.Event.Type == string(contracts.EventTodoAdded) {
		var added contracts.TodoAdded
		if err := json.Unmarshal(resp.Event.Payload, &added); err == nil {
			r.addTodo(added.GUID)
		}
	}
	r.actionsTotal.Inc(name, "success")
}

func (r *runner) postCommand(ctx context.Context, kind contracts.CommandKind, payload map[string]any, out any) error {
	raw, err := json.Marshal(map[string]any{"type": string(kind), "payload": payload})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.APIBase+"/api/v1/commands", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		r.requestsTotal.Inc("0", "error")
		r.requestsError.Add(1)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	status := strconv.Itoa(resp.StatusCode)
	if err != nil || resp.StatusCode != http.StatusAccepted {
		r.requestsTotal.Inc(status, "error")
		r.requestsError.Add(1)
		if err == nil {
			err = fmt.Errorf("unexpected status=%d body=%s", resp.StatusCode, truncate(string(body), 240))
		}
		return err
	}
	r.requestsTotal.Inc(status, "success")
	r.requestsSuccess.Add(1)
	return json.Unmarshal(body, out)
}

func (r *runner) runSSELoop(ctx context.Context) {
	for ctx.Err() == nil {
		if err := r.readEvents(ctx); err != nil && ctx.Err() == nil {
			log.Printf("event stream: %v", err)
			time.Sleep(time.Second)
		}
	}
}

func (r *runner) readEvents(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.APIBase+"/api/v1/events", nil)
	if err != nil {
		return err
	}
	// The stream outlives the request timeout.
	resp, err := (&http.Client{Transport: r.client.Transport}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "event: ") {
			r.eventsReceived.Inc()
		}
	}
	return scanner.Err()
}

func (r *runner) logProgress(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("progress: success_requests=%d error_requests=%d workers=%d events_received=%.0f",
				r.requestsSuccess.Load(), r.requestsError.Load(), r.workers.Load(), r.eventsReceived.Value())
		}
	}
}

func runMetricsServer(addr string, registry *metrics.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("load generator metrics endpoint listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("load generator metrics server failed: %v", err)
	}
}

func (r *runner) addTodo(guid string) {
	if strings.TrimSpace(guid) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos = append(r.todos, guid)
}

func (r *runner) randomTodo(rng *rand.Rand) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.todos) == 0 {
		return "", false
	}
	return r.todos[rng.Intn(len(r.todos))], true
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}
