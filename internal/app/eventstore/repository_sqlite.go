package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bullet-productivity/journal/internal/contracts"
)

// SQLiteRepository keeps the log in a single-file SQLite database in WAL mode.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps seq order identical to append order.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	repo := &SQLiteRepository{db: db, path: dbPath}
	if err := repo.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		id        TEXT UNIQUE,
		type      TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		payload   TEXT NOT NULL DEFAULT '{}'
	);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) Append(ctx context.Context, env contracts.Envelope) (bool, error) {
	id := sql.NullString{String: env.ID, Valid: env.ID != ""}
	payload := string(env.Payload)
	if payload == "" {
		payload = "{}"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (id, type, timestamp, payload) VALUES (?, ?, ?, ?)`,
		id, env.Type, env.Timestamp.UTC().Format(time.RFC3339Nano), payload,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLiteRepository) Load(ctx context.Context) ([]contracts.Envelope, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, type, timestamp, payload FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []contracts.Envelope
	for rows.Next() {
		var (
			id        sql.NullString
			env       contracts.Envelope
			timestamp string
			payload   string
		)
		if err := rows.Scan(&id, &env.Type, &timestamp, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp of %s: %w", id.String, err)
		}
		env.Timestamp = ts
		env.ID = id.String
		env.Payload = []byte(payload)
		out = append(out, env)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
