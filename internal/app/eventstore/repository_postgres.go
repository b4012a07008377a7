package eventstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bullet-productivity/journal/internal/contracts"
)

// The document column holds the full envelope so nanosecond timestamps survive;
// occurred_at is there for ad-hoc queries only.
const createJournalEventsTableSQL = `
CREATE TABLE IF NOT EXISTS journal_events (
  seq bigserial PRIMARY KEY,
  event_id text UNIQUE,
  event_type text NOT NULL,
  occurred_at timestamptz NOT NULL,
  document jsonb NOT NULL,
  inserted_at timestamptz NOT NULL DEFAULT now()
)`

const createJournalEventsTypeIndexSQL = `
CREATE INDEX IF NOT EXISTS journal_events_type_idx ON journal_events (event_type)`

const insertJournalEventSQL = `
INSERT INTO journal_events (event_id, event_type, occurred_at, document)
VALUES ($1, $2, $3, $4)
ON CONFLICT (event_id) DO NOTHING
`

const selectJournalEventsSQL = `
SELECT document FROM journal_events ORDER BY seq
`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createJournalEventsTableSQL); err != nil {
		return err
	}
	if _, err := r.Pool.Exec(ctx, createJournalEventsTypeIndexSQL); err != nil {
		return err
	}
	return nil
}

func (r *PostgresRepository) Append(ctx context.Context, env contracts.Envelope) (bool, error) {
	document, err := json.Marshal(env)
	if err != nil {
		return false, fmt.Errorf("marshal envelope: %w", err)
	}
	var eventID *string
	if env.ID != "" {
		eventID = &env.ID
	}
	tag, err := r.Pool.Exec(ctx, insertJournalEventSQL, eventID, env.Type, env.Timestamp, document)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) Load(ctx context.Context) ([]contracts.Envelope, error) {
	rows, err := r.Pool.Query(ctx, selectJournalEventsSQL)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []contracts.Envelope
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var env contracts.Envelope
		if err := json.Unmarshal(document, &env); err != nil {
			return nil, fmt.Errorf("decode event document: %w", err)
		}
		out = append(out, env)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	if r.Pool != nil {
		r.Pool.Close()
	}
	return nil
}
