package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a Store persisted as a single JSON document on disk.
// Writes go through a temp-file-and-rename so the state file is never
// left partially written.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]string // base64-encoded values
}

// NewFileStore opens (or creates) a file-backed store at path. An existing
// unparseable state file is discarded with a warning rather than failing:
// persisted client state is always best-effort.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &FileStore{
		path:    path,
		logger:  logger,
		entries: make(map[string]string),
	}
	s.load()
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Corrupt entry: remove it and report absent.
		s.logger.Warn("state entry is corrupt, removing",
			slog.String("key", key), slog.Any("error", err))
		delete(s.entries, key)
		if persistErr := s.persistLocked(); persistErr != nil {
			s.logger.Warn("persist after corrupt entry removal failed",
				slog.Any("error", persistErr))
		}
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = base64.StdEncoding.EncodeToString(value)
	return s.persistLocked()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.persistLocked()
}

func (s *FileStore) load() {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read state file failed, starting empty",
				slog.String("path", s.path), slog.Any("error", err))
		}
		return
	}
	if len(b) == 0 {
		return
	}

	var decoded map[string]string
	if err := json.Unmarshal(b, &decoded); err != nil {
		s.logger.Warn("state file is corrupt, discarding",
			slog.String("path", s.path), slog.Any("error", err))
		return
	}
	s.entries = decoded
	if s.entries == nil {
		s.entries = make(map[string]string)
	}
}

// persistLocked writes the state file atomically: temp file in the same
// directory, fsync, then rename.
func (s *FileStore) persistLocked() error {
	b, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tic-ui-state-")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tempPath := f.Name()

	ok := false
	defer func() {
		if !ok {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync state file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o600); err != nil {
		return fmt.Errorf("chmod state file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	ok = true
	return nil
}
