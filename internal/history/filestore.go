package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// FileStore keeps the full history in memory and mirrors every change to a
// JSON file. Existing records are loaded on construction so history survives
// process restarts.
type FileStore struct {
	mu      sync.Mutex
	path    string
	maxSize int
	logger  *zap.Logger
	records []Record
}

// NewFileStore opens or creates a JSON-file backed store. A corrupt or
// unreadable file is logged and treated as empty rather than failing
// construction.
func NewFileStore(path string, maxSize int, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{
		path:    path,
		maxSize: maxSize,
		logger:  logger.Named("history"),
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not read history file, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("history file is corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return
	}
	s.records = records
	s.trimLocked()
}

// Append implements Store. The record is retained in memory even when the
// file write fails; persistence problems surface as the returned error and a
// warning log, never as data loss within the process.
func (s *FileStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	s.trimLocked()
	if err := s.saveLocked(); err != nil {
		s.logger.Warn("failed to persist history", zap.String("path", s.path), zap.Error(err))
		return err
	}
	return nil
}

// trimLocked drops the oldest records beyond maxSize. Callers hold mu.
func (s *FileStore) trimLocked() {
	if s.maxSize > 0 && len(s.records) > s.maxSize {
		s.records = append([]Record(nil), s.records[len(s.records)-s.maxSize:]...)
	}
}

func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating history directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// Recent implements Store.
func (s *FileStore) Recent(ctx context.Context, n int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return append([]Record(nil), records...), nil
}

// ByType implements Store.
func (s *FileStore) ByType(ctx context.Context, actionType string) ([]Record, error) {
	return s.filter(ctx, func(r Record) bool { return r.ActionType == actionType })
}

// Failed implements Store.
func (s *FileStore) Failed(ctx context.Context) ([]Record, error) {
	return s.filter(ctx, func(r Record) bool { return !r.Success })
}

// Search implements Store.
func (s *FileStore) Search(ctx context.Context, query string) ([]Record, error) {
	return s.filter(ctx, func(r Record) bool { return matches(r, query) })
}

func (s *FileStore) filter(ctx context.Context, keep func(Record) bool) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Clear implements Store.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return s.saveLocked()
}

// Close implements Store. The file is already consistent after every append.
func (s *FileStore) Close() error { return nil }

// Len reports the number of retained records.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
