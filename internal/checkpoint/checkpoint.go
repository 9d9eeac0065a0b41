// Package checkpoint tracks which work items a pipeline phase has fully
// processed, so interrupted runs resume where they left off. The on-disk
// format is a small JSON file written atomically after every item.
package checkpoint

import (
	"fmt"

	"github.com/jonathan/tune-scout/internal/storage"
)

// State is the durable record of pipeline progress. Completed holds hymn
// keys in the order they finished; Failed maps a hymn key to the last
// error message seen for it.
type State struct {
	Completed []string          `json:"completed"`
	Failed    map[string]string `json:"failed"`

	completedSet map[string]struct{}
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Completed:    []string{},
		Failed:       map[string]string{},
		completedSet: map[string]struct{}{},
	}
}

// IsCompleted reports whether key has already been fully processed.
func (s *State) IsCompleted(key string) bool {
	_, ok := s.completedSet[key]
	return ok
}

// MarkCompleted records key as done. A completed key is never removed by a
// normal run; a later MarkCompleted for the same key is a no-op. Any prior
// failure record for the key is cleared.
func (s *State) MarkCompleted(key string) {
	if s.IsCompleted(key) {
		return
	}
	s.Completed = append(s.Completed, key)
	s.completedSet[key] = struct{}{}
	delete(s.Failed, key)
}

// MarkFailed records the last error message for key, overwriting any
// earlier one.
func (s *State) MarkFailed(key, message string) {
	s.Failed[key] = message
}

func (s *State) rebuild() {
	s.completedSet = make(map[string]struct{}, len(s.Completed))
	for _, key := range s.Completed {
		s.completedSet[key] = struct{}{}
	}
	if s.Failed == nil {
		s.Failed = map[string]string{}
	}
	if s.Completed == nil {
		s.Completed = []string{}
	}
}

// Store persists State to a single JSON file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (st *Store) Path() string {
	return st.path
}

// Load reads the checkpoint. A missing file is not an error: it yields an
// empty state, so a first run and a fresh reset behave identically.
func (st *Store) Load() (*State, error) {
	state := NewState()
	found, err := storage.ReadJSON(st.path, state)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if !found {
		return NewState(), nil
	}
	state.rebuild()
	return state, nil
}

// Save writes the checkpoint atomically.
func (st *Store) Save(state *State) error {
	if err := storage.WriteJSON(st.path, state); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Reset deletes the checkpoint file along with any derived output files
// passed in. Cached raw content is deliberately untouched: the next run
// reprocesses every item but re-reads pages from cache.
func (st *Store) Reset(derivedOutputs ...string) error {
	if err := storage.RemoveIfExists(st.path); err != nil {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	for _, path := range derivedOutputs {
		if err := storage.RemoveIfExists(path); err != nil {
			return fmt.Errorf("failed to remove derived output %s: %w", path, err)
		}
	}
	return nil
}
