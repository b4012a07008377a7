package journal

import (
	"github.com/bullet-productivity/journal/internal/app/readmodel"
	"github.com/bullet-productivity/journal/internal/platform/metrics"
)

type instruments struct {
	registry       *metrics.Registry
	commands       *metrics.CounterVec
	replayed       *metrics.Counter
	replayDuration *metrics.Gauge
}

func newInstruments(j *Journal) *instruments {
	m := &instruments{
		registry: metrics.NewRegistry(),
		commands: metrics.NewCounterVec(metrics.Opts{
			Name: "journal_commands_total",
			Help: "Commands handled, by kind and response.",
		}, []string{"kind", "response"}),
		replayed: metrics.NewCounter(metrics.Opts{
			Name: "journal_events_replayed_total",
			Help: "Events republished from the log at startup.",
		}),
		replayDuration: metrics.NewGauge(metrics.Opts{
			Name: "journal_replay_duration_seconds",
			Help: "Duration of the startup replay.",
		}),
	}

	stat := func(pick func(readmodel.Stats) int) func() float64 {
		return func() float64 {
			var stats readmodel.Stats
			j.View(func(p *readmodel.Projection) { stats = p.Stats() })
			return float64(pick(stats))
		}
	}

	m.registry.MustRegister(
		m.commands,
		m.replayed,
		m.replayDuration,
		metrics.NewGaugeFunc(metrics.Opts{Name: "journal_categories", Help: "Categories projected."},
			stat(func(s readmodel.Stats) int { return s.Categories })),
		metrics.NewGaugeFunc(metrics.Opts{Name: "journal_notes", Help: "Notes projected."},
			stat(func(s readmodel.Stats) int { return s.Notes })),
		metrics.NewGaugeFunc(metrics.Opts{Name: "journal_todos", Help: "Todos projected."},
			stat(func(s readmodel.Stats) int { return s.Todos })),
		metrics.NewGaugeFunc(metrics.Opts{Name: "journal_open_todos", Help: "Todos not yet complete."},
			stat(func(s readmodel.Stats) int { return s.OpenTodos })),
		metrics.NewGaugeFunc(metrics.Opts{Name: "journal_tasks", Help: "Work sessions logged."},
			stat(func(s readmodel.Stats) int { return s.Tasks })),
		metrics.NewGaugeFunc(metrics.Opts{Name: "journal_feed_subscribers", Help: "Live event feed subscribers."},
			func() float64 { return float64(j.feed.Subscribers()) }),
		metrics.NewGaugeFunc(metrics.Opts{Name: "journal_feed_dropped_total", Help: "Feed deliveries skipped for slow subscribers."},
			func() float64 { return float64(j.feed.Dropped()) }),
	)
	metrics.RegisterProcessCollectors(m.registry)
	return m
}
