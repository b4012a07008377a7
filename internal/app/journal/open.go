package journal

import (
	"context"
	"fmt"

	"github.com/bullet-productivity/journal/internal/app/eventstore"
	"github.com/bullet-productivity/journal/internal/platform/config"
	"github.com/bullet-productivity/journal/internal/platform/dbpool"
	"github.com/bullet-productivity/journal/internal/platform/natsutil"
)

// OpenRepository connects the event log backend cfg selects.
func OpenRepository(ctx context.Context, cfg config.Config) (eventstore.Repository, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return eventstore.NewMemoryRepository(), nil

	case config.BackendJSONL:
		return eventstore.NewJSONLRepository(cfg.LogPath)

	case config.BackendSQLite:
		return eventstore.NewSQLiteRepository(cfg.SQLitePath)

	case config.BackendPostgres:
		pool, err := dbpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := eventstore.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, nil

	case config.BackendJetStream:
		client, err := natsutil.ConnectJetStreamWithRetry(cfg.NATS.URL, cfg.NATS.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return eventstore.NewJetStreamRepository(client), nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

// Start opens the configured backend and replays it into a new Journal.
func Start(ctx context.Context, cfg config.Config) (*Journal, error) {
	repo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	j := New(repo)
	if _, err := j.Open(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return j, nil
}
