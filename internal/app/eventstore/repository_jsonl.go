package eventstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/bullet-productivity/journal/internal/contracts"
)

// JSONLRepository stores one JSON envelope per line. Appends take an exclusive
// flock so a CLI invocation and a running server can share one file.
//
// A line without a trailing newline is a torn write from a crash: Load ignores
// it and the next Append truncates it away.
type JSONLRepository struct {
	path string

	mu       sync.Mutex
	ids      map[string]struct{}
	indexed  int64
	complete int64
}

func NewJSONLRepository(path string) (*JSONLRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("event log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create event log: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close event log: %w", err)
	}
	return &JSONLRepository{path: path, ids: map[string]struct{}{}}, nil
}

// Path returns the log file location.
func (r *JSONLRepository) Path() string { return r.path }

func (r *JSONLRepository) Append(_ context.Context, env contracts.Envelope) (bool, error) {
	line, err := json.Marshal(env)
	if err != nil {
		return false, fmt.Errorf("marshal envelope: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := false
	err = r.withFileLock(os.O_RDWR|os.O_APPEND, syscall.LOCK_EX, func(f *os.File) error {
		if err := r.refreshIndex(f); err != nil {
			return err
		}
		if env.ID != "" {
			if _, dup := r.ids[env.ID]; dup {
				return nil
			}
		}
		if r.complete < r.indexed {
			log.Printf("eventstore: truncating torn record at offset %d in %s", r.complete, r.path)
			if err := f.Truncate(r.complete); err != nil {
				return fmt.Errorf("truncate torn record: %w", err)
			}
			r.indexed = r.complete
		}
		if _, err := f.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync event log: %w", err)
		}
		r.indexed += int64(len(line))
		r.complete = r.indexed
		if env.ID != "" {
			r.ids[env.ID] = struct{}{}
		}
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *JSONLRepository) Load(_ context.Context) ([]contracts.Envelope, error) {
	var records []contracts.Envelope
	err := r.withFileLock(os.O_RDONLY, syscall.LOCK_SH, func(f *os.File) error {
		var err error
		records, _, err = readEnvelopes(f, 0)
		return err
	})
	return records, err
}

func (r *JSONLRepository) Close() error { return nil }

// refreshIndex picks up records appended by other processes since the last call.
func (r *JSONLRepository) refreshIndex(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat event log: %w", err)
	}
	size := info.Size()
	if size < r.complete {
		r.ids = map[string]struct{}{}
		r.complete = 0
	}
	if size == r.complete {
		r.indexed = size
		return nil
	}

	records, consumed, err := readEnvelopes(io.NewSectionReader(f, r.complete, size-r.complete), r.complete)
	if err != nil {
		return err
	}
	for _, env := range records {
		if env.ID != "" {
			r.ids[env.ID] = struct{}{}
		}
	}
	r.complete += consumed
	r.indexed = size
	return nil
}

func (r *JSONLRepository) withFileLock(flag, how int, fn func(f *os.File) error) error {
	f, err := os.OpenFile(r.path, flag, 0o644)
	if errors.Is(err, os.ErrNotExist) && flag == os.O_RDONLY {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), how); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn(f)
}

// readEnvelopes decodes newline-terminated records and reports how many bytes
// they span. base is the reader's offset in the file, for error messages.
func readEnvelopes(reader io.Reader, base int64) ([]contracts.Envelope, int64, error) {
	var records []contracts.Envelope
	var consumed int64
	buffered := bufio.NewReader(reader)
	for lineNum := 1; ; lineNum++ {
		line, err := buffered.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(bytes.TrimSpace(line)) > 0 {
				log.Printf("eventstore: ignoring unterminated record at offset %d", base+consumed)
			}
			return records, consumed, nil
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read event log: %w", err)
		}
		consumed += int64(len(line))
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var env contracts.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return nil, 0, fmt.Errorf("parse record at offset %d (line %d): %w", base+consumed-int64(len(line)), lineNum, err)
		}
		records = append(records, env)
	}
}
