// Package state persists what a bootstrap run launched (PIDs, derived
// address) so later invocations can tear it down or report on it.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	stateDir  = ".fusion"
	stateFile = "state.json"
)

// Run records one bootstrap run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	AnvilPID   int       `json:"anvilPid"`
	EVMAddress string    `json:"evmAddress"`
}

// NewRun allocates a record with a fresh id.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// Store reads and writes the state file under the project root.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore returns a store rooted at dir. The file lives at
// dir/.fusion/state.json.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, stateDir, stateFile)}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the recorded run, or nil when nothing is recorded.
func (s *Store) Load() (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("corrupt state file %s: %w", s.path, err)
	}
	return &run, nil
}

// Save writes the run record, creating the state directory if needed.
func (s *Store) Save(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Clear removes the state file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
