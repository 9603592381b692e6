package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/maklarsystem/hookguard/internal/util"
)

// DefaultLockTimeout bounds how long Append waits for another writer.
const DefaultLockTimeout = 5 * time.Second

const lockRetry = 25 * time.Millisecond

// FileStore keeps one JSON array per stage under Dir, named by the stage's
// log name (pre_tool_use.json, stop.json, ...).
//
// Append is safe across processes: each write holds an exclusive flock on
// the stage file's .lock sibling for the whole read-modify-rename cycle.
type FileStore struct {
	Dir         string
	LockTimeout time.Duration
	Logger      *slog.Logger

	mu sync.Mutex
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string, lockTimeout time.Duration, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileStore{Dir: dir, LockTimeout: lockTimeout, Logger: logger}
}

// Path returns the log file for stage.
func (s *FileStore) Path(stage hook.Stage) string {
	return filepath.Join(s.Dir, stage.LogName()+".json")
}

// Append implements Store.
func (s *FileStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(e.Stage)
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return &WriteError{Op: "creating log directory", Path: s.Dir, Err: err}
	}

	lock, err := s.lock(ctx, path)
	if err != nil {
		return &WriteError{Op: "locking", Path: path, Err: err}
	}
	defer func() { _ = lock.Unlock() }()

	records, err := s.load(path)
	if err != nil {
		return &WriteError{Op: "reading", Path: path, Err: err}
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return &WriteError{Op: "encoding entry for", Path: path, Err: err}
	}
	records = append(records, raw)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &WriteError{Op: "encoding", Path: path, Err: err}
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return &WriteError{Op: "writing", Path: path, Err: err}
	}
	return nil
}

// Read implements Store. A missing log is empty.
func (s *FileStore) Read(stage hook.Stage) ([]Entry, error) {
	path := s.Path(stage)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the log dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &WriteError{Op: "reading", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &WriteError{Op: "decoding", Path: path, Err: err}
	}
	return entries, nil
}

func (s *FileStore) lock(ctx context.Context, path string) (*flock.Flock, error) {
	timeout := s.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for audit log lock")
	}
	return lock, nil
}

// load returns the current records of path without decoding them, so they
// are written back unchanged. A document that is not a JSON array is moved
// aside and the log restarts empty.
func (s *FileStore) load(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the log dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []json.RawMessage
	decodeErr := json.Unmarshal(data, &records)
	if decodeErr == nil {
		return records, nil
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixNano())
	if err := os.Rename(path, aside); err != nil {
		return nil, fmt.Errorf("moving corrupt log aside: %w", err)
	}
	s.Logger.Warn("audit log was corrupt, moved aside",
		"path", path, "moved_to", aside, "error", decodeErr)
	return nil, nil
}
