// Package config resolves journal settings from, in increasing precedence:
// built-in defaults, a TOML file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/bullet-productivity/journal/internal/platform/env"
)

const (
	BackendMemory    = "memory"
	BackendJSONL     = "jsonl"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendJetStream = "jetstream"
)

var ErrUnknownBackend = errors.New("unknown event log backend")

type Config struct {
	// Backend selects where the event log lives.
	Backend     string `toml:"backend"`
	LogPath     string `toml:"log-path"`
	SQLitePath  string `toml:"sqlite-path"`
	DatabaseURL string `toml:"database-url"`
	NATS        NATS   `toml:"nats"`
	HTTP        HTTP   `toml:"http"`
}

type NATS struct {
	URL            string        `toml:"url"`
	ConnectTimeout time.Duration `toml:"connect-timeout"`
}

type HTTP struct {
	Addr            string        `toml:"addr"`
	AllowedOrigins  []string      `toml:"allowed-origins"`
	ShutdownTimeout time.Duration `toml:"shutdown-timeout"`
}

func Default() Config {
	return Config{
		Backend:     env.DefaultBackend,
		LogPath:     env.DefaultLogPath,
		SQLitePath:  env.DefaultSQLitePath,
		DatabaseURL: env.DefaultDatabaseURL,
		NATS: NATS{
			URL:            env.DefaultNATSURL,
			ConnectTimeout: 30 * time.Second,
		},
		HTTP: HTTP{
			Addr:            env.DefaultHTTPAddr,
			ShutdownTimeout: env.DefaultShutdownWait,
		},
	}
}

// Load reads path, or JOURNAL_CONFIG / journal.toml when path is empty. A
// missing default file is not an error; a missing explicit one is.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = env.String("JOURNAL_CONFIG", "")
		explicit = path != ""
	}
	if path == "" {
		path = env.DefaultConfigFile
	}

	cfg := Default()
	if err := loadFile(path, explicit, &cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, explicit bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Backend = env.String("JOURNAL_BACKEND", cfg.Backend)
	cfg.LogPath = env.String("JOURNAL_LOG_PATH", cfg.LogPath)
	cfg.SQLitePath = env.String("JOURNAL_SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = env.String("DATABASE_URL", cfg.DatabaseURL)
	cfg.NATS.URL = env.String("NATS_URL", cfg.NATS.URL)
	cfg.NATS.ConnectTimeout = env.Duration("NATS_CONNECT_TIMEOUT", cfg.NATS.ConnectTimeout)
	cfg.HTTP.Addr = env.String("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.AllowedOrigins = env.List("CORS_ALLOWED_ORIGINS", cfg.HTTP.AllowedOrigins)
	cfg.HTTP.ShutdownTimeout = env.Duration("SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendJSONL:
		if c.LogPath == "" {
			return errors.New("jsonl backend needs log-path")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite backend needs sqlite-path")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres backend needs database-url")
		}
	case BackendJetStream:
		if c.NATS.URL == "" {
			return errors.New("jetstream backend needs nats url")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	return nil
}
