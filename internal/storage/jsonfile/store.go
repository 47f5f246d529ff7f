// Package jsonfile persists every pache in a single JSON document on disk.
// The file is human-editable; writes go through a temp file and rename so a
// crash never leaves a half-written document behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pache/internal/core"
)

type document struct {
	Paches []core.Pache `json:"paches"`
}

// Store is a file-backed Store implementation guarded by a single mutex.
// Suitable for the small collections this application manages.
type Store struct {
	path string
	mu   sync.Mutex
}

// New opens the store at path, creating an empty document (and any missing
// parent directories) on first use.
func New(path string) (*Store, error) {
	s := &Store{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		if err := s.write(document{Paches: []core.Pache{}}); err != nil {
			return nil, fmt.Errorf("bootstrap data file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}

	// Fail fast on a corrupt document instead of at first request.
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) read() (document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return document{}, fmt.Errorf("read data file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, fmt.Errorf("parse data file %s: %w", s.path, err)
	}
	if doc.Paches == nil {
		doc.Paches = []core.Pache{}
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".pache-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func (s *Store) ListPaches(ctx context.Context) ([]core.Pache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Paches, nil
}

func (s *Store) GetPache(ctx context.Context, id string) (core.Pache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return core.Pache{}, err
	}
	for _, p := range doc.Paches {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Pache{}, fmt.Errorf("%w: pache %s", core.ErrNotFound, id)
}

func (s *Store) CreatePache(ctx context.Context, p core.Pache) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	for _, existing := range doc.Paches {
		if existing.ID == p.ID {
			return fmt.Errorf("pache %s already exists", p.ID)
		}
	}
	doc.Paches = append(doc.Paches, p)
	return s.write(doc)
}

func (s *Store) SavePache(ctx context.Context, p core.Pache) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	for i, existing := range doc.Paches {
		if existing.ID == p.ID {
			doc.Paches[i] = p
			return s.write(doc)
		}
	}
	return fmt.Errorf("%w: pache %s", core.ErrNotFound, p.ID)
}

func (s *Store) DeletePache(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	kept := doc.Paches[:0:0]
	for _, p := range doc.Paches {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(doc.Paches) {
		return fmt.Errorf("%w: pache %s", core.ErrNotFound, id)
	}
	doc.Paches = kept
	return s.write(doc)
}

func (s *Store) Close() error { return nil }
