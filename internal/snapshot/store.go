package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Ext is the file extension of stored snapshots.
const Ext = ".fsnap"

// Store keeps snapshots as <id>.fsnap files in one directory. Safe for
// concurrent use.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir is $XDG_CACHE_HOME/formc/snapshots, falling back to ~/.cache.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "formc", "snapshots"), nil
}

// Open returns a store rooted at dir, DefaultDir when dir is empty.
func Open(dir string) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve snapshot directory: %w", err)
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (st *Store) Dir() string { return st.dir }

func (st *Store) pathFor(id uuid.UUID) string {
	return filepath.Join(st.dir, id.String()+Ext)
}

// Save writes s atomically and returns its path.
func (st *Store) Save(s *Snapshot) (string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	p := st.pathFor(s.ID)
	if err := writeFile(p, s); err != nil {
		return "", err
	}
	return p, nil
}

// Load reads a snapshot by id. ref may also be a path to a snapshot file.
func (st *Store) Load(ref string) (*Snapshot, error) {
	path := ref
	if id, err := uuid.Parse(ref); err == nil {
		path = st.pathFor(id)
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return ReadFile(path)
}

// List returns the stored snapshot ids, sorted.
func (st *Store) List() ([]uuid.UUID, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	var ids []uuid.UUID
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, Ext) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, Ext))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	return ids, nil
}

// WriteFile encodes s to path atomically.
func WriteFile(path string, s *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFile(path, s)
}

func writeFile(path string, s *Snapshot) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	enc := msgpack.NewEncoder(f)
	enc.SetSortMapKeys(true)
	if err = enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// ReadFile decodes and validates the snapshot at path.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	var s Snapshot
	if err := msgpack.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("%s: failed to decode snapshot: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}
