package json

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/relay"
)

// Interface compliance check.
var _ relay.LogStore = (*LogStore)(nil)

// LogStore appends exchange records to a JSON Lines file.
type LogStore struct {
	path string
	mu   sync.Mutex
}

// NewLogStore creates a LogStore writing to path.
func NewLogStore(path string) *LogStore {
	return &LogStore{path: path}
}

// Path returns the backing file path.
func (s *LogStore) Path() string {
	return s.path
}

// Append implements [relay.LogStore]. The file and its directory are created
// on first use.
func (s *LogStore) Append(_ context.Context, rec relay.ExchangeRecord) error {
	data, err := MarshalRecord(rec)
	if err != nil {
		return fmt.Errorf("json: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("json: create directories: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("json: open %s: %w", s.path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("json: write %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("json: close %s: %w", s.path, err)
	}
	return nil
}
