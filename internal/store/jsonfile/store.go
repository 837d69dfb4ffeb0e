// Package jsonfile stores categories, labels, assignment settings and
// customers as JSON documents in one directory. Every collection has its own
// mutex and is replaced atomically via rename, so a rotation read-modify-write
// holds the collection lock for its whole duration. The lock is per process;
// run a single API instance on a file store.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	categoriesFile = "categories.json"
	labelsFile     = "labels.json"
	settingsFile   = "lead_assignment.json"
	customersFile  = "customers.json"
)

// Store is the file-backed implementation of every configuration and customer
// store interface.
type Store struct {
	dir string

	categoriesMu sync.Mutex
	labelsMu     sync.Mutex
	settingsMu   sync.Mutex
	customersMu  sync.Mutex

	now func() time.Time
}

// Open prepares dir for use, creating it when missing.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("jsonfile: data dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create data dir: %w", err)
	}
	return &Store{dir: dir, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// read decodes name into v. A missing file leaves v untouched.
func (s *Store) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsonfile: read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("jsonfile: decode %s: %w", name, err)
	}
	return nil
}

// write replaces name with v through a temp file and rename.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("jsonfile: replace %s: %w", name, err)
	}
	return nil
}

// Ping reports whether the data directory is still reachable.
func (s *Store) Ping(_ context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}
