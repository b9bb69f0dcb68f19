package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

const manifestName = "manifest.json"

// Store is the catalog of models under a single models directory. The
// directory itself is the source of truth for what is on disk; a manifest
// file alongside the weights remembers metadata the filename cannot carry
// (repo, checksum, origin) and references to files imported in place from
// outside the directory.
type Store struct {
	dir string

	mu       sync.RWMutex
	manifest map[string]Model // keyed by Name
}

// OpenStore opens the store at dir, creating it if needed.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}
	s := &Store{dir: dir, manifest: make(map[string]Model)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the models directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.dir, manifestName)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.manifestPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var entries []Model
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", manifestName, err)
	}
	for _, m := range entries {
		s.manifest[m.Name] = m
	}
	return nil
}

func (s *Store) save() error {
	entries := make([]Model, 0, len(s.manifest))
	for _, m := range s.manifest {
		entries = append(entries, m)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.manifestPath(), data, 0o644)
}

// Remember stores metadata for m in the manifest.
func (s *Store) Remember(m Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest[m.Name] = m
	return s.save()
}

// Forget drops the manifest entry for name. Files on disk are untouched.
func (s *Store) Forget(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.manifest[name]; !ok {
		return nil
	}
	delete(s.manifest, name)
	return s.save()
}

// List returns every model whose weights are currently present: GGUF files
// under the models dir plus imported-in-place files that still exist.
func (s *Store) List(ctx context.Context) ([]Model, error) {
	matches, err := doublestar.Glob(os.DirFS(s.dir), "**/*.gguf")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.dir, err)
	}

	scanned := make([]Model, len(matches))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, rel := range matches {
		g.Go(func() error {
			full := filepath.Join(s.dir, filepath.FromSlash(rel))
			fi, err := os.Stat(full)
			if errors.Is(err, os.ErrNotExist) {
				return nil // removed between glob and stat
			}
			if err != nil {
				return err
			}
			m := s.byFile(rel)
			if m.Name == "" {
				base := filepath.Base(rel)
				m = Model{
					Name:   strings.TrimSuffix(base, filepath.Ext(base)),
					File:   rel,
					Origin: OriginHub,
				}
			}
			m.Downloaded = true
			m.Path = full
			m.SizeBytes = fi.Size()
			m.Modified = fi.ModTime()
			scanned[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	models := scanned[:0]
	for _, m := range scanned {
		if m.Name != "" {
			models = append(models, m)
		}
	}
	for _, m := range s.localImports() {
		fi, err := os.Stat(m.Path)
		if err != nil {
			continue
		}
		m.SizeBytes = fi.Size()
		m.Modified = fi.ModTime()
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

func (s *Store) byFile(rel string) Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.manifest {
		if m.File == rel && !m.Local {
			return m
		}
	}
	return Model{}
}

func (s *Store) localImports() []Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Model
	for _, m := range s.manifest {
		if m.Local {
			out = append(out, m)
		}
	}
	return out
}

// Resolve maps a user-supplied name to a model: on-disk models first, then
// the preset registry.
func (s *Store) Resolve(ctx context.Context, name string) (Model, error) {
	models, err := s.List(ctx)
	if err != nil {
		return Model{}, err
	}
	for _, m := range models {
		if m.Name == name || m.File == name {
			return m, nil
		}
	}
	if p, ok := Lookup(name); ok {
		return p, nil
	}
	return Model{}, fmt.Errorf("unknown model %q", name)
}

// Remove deletes name's weights from the models dir and forgets it. Files
// imported in place are only forgotten, never deleted.
func (s *Store) Remove(ctx context.Context, name string) (Model, error) {
	m, err := s.Resolve(ctx, name)
	if err != nil {
		return Model{}, err
	}
	if !m.Local && m.Path != "" {
		if err := os.Remove(m.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Model{}, fmt.Errorf("remove %s: %w", m.Path, err)
		}
	}
	if err := s.Forget(m.Name); err != nil {
		return Model{}, err
	}
	return m, nil
}

// ImportLocal registers a GGUF file outside the models dir without copying
// it. The file is used where it lies.
func (s *Store) ImportLocal(path string) (Model, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Model{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Model{}, err
	}
	if fi.IsDir() || !strings.EqualFold(filepath.Ext(abs), ".gguf") {
		return Model{}, fmt.Errorf("%s is not a GGUF file", path)
	}
	base := filepath.Base(abs)
	m := Model{
		Name:      strings.TrimSuffix(base, filepath.Ext(base)),
		File:      base,
		SizeBytes: fi.Size(),
		Origin:    OriginLocal,
		Local:     true,
		Path:      abs,
		Modified:  fi.ModTime(),
	}
	if err := s.Remember(m); err != nil {
		return Model{}, err
	}
	return m, nil
}
