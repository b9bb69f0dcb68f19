package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ResultStore keeps benchmark results in a single JSON file so runs survive
// across sessions and can be compared or submitted later.
type ResultStore struct {
	mu      sync.RWMutex
	results []Result
	path    string
}

// OpenResultStore loads the store under dir, creating an empty one if no
// file exists yet.
func OpenResultStore(dir string) (*ResultStore, error) {
	s := &ResultStore{
		path:    filepath.Join(dir, "results.json"),
		results: []Result{},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ResultStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &s.results)
}

// persist writes the store to disk. Callers hold s.mu.
func (s *ResultStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Add records a result. An existing result with the same ID is replaced.
func (s *ResultStore) Add(r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, have := range s.results {
		if have.ID == r.ID {
			s.results[i] = r
			return s.persist()
		}
	}
	s.results = append(s.results, r)
	return s.persist()
}

// List returns all results, newest first.
func (s *ResultStore) List() []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]Result, len(s.results))
	copy(sorted, s.results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RanAt.After(sorted[j].RanAt)
	})
	return sorted
}

// Get finds a result by ID. A unique prefix works too, so short IDs from
// the results listing can be pasted back in.
func (s *ResultStore) Get(id string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.results {
		if r.ID == id {
			return r, true
		}
	}
	var match Result
	var n int
	for _, r := range s.results {
		if strings.HasPrefix(r.ID, id) {
			match = r
			n++
		}
	}
	if n == 1 {
		return match, true
	}
	return Result{}, false
}

// Latest returns the most recent result for a model and preset.
func (s *ResultStore) Latest(model, preset string) (Result, bool) {
	var found Result
	var ok bool
	for _, r := range s.List() {
		if r.Model == model && r.Preset == preset {
			found = r
			ok = true
			break
		}
	}
	return found, ok
}

// Remove deletes a result by ID or unique prefix.
func (s *ResultStore) Remove(id string) error {
	r, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("no result matching %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.results[:0]
	for _, have := range s.results {
		if have.ID != r.ID {
			kept = append(kept, have)
		}
	}
	s.results = kept
	return s.persist()
}
