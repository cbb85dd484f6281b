// Package session persists performance snapshots between shows. Snapshots
// are stored as one JSON file per session in a local directory, suitable
// for a single performer's machine.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/offbeat-labs/flowcanvas/internal/suggest"
)

// ErrNotFound is returned when a snapshot does not exist in the store.
var ErrNotFound = errors.New("session: snapshot not found")

// Store persists and retrieves performance snapshots.
type Store interface {
	Save(snapshot suggest.Snapshot) error
	Load(id string) (suggest.Snapshot, error)
	List() ([]string, error)
	Delete(id string) error
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// FileStore keeps one JSON file per snapshot under a directory.
// Thread-safe for concurrent use.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is
// created if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the snapshot, replacing any previous snapshot with the
// same session ID. The write goes through a temp file so a crash never
// leaves a torn snapshot behind.
func (s *FileStore) Save(snapshot suggest.Snapshot) error {
	if snapshot.ID == "" {
		return errors.New("session: snapshot has no ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	data = append(data, '\n')

	path := s.path(snapshot.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}

// Load reads the snapshot with the given session ID.
func (s *FileStore) Load(id string) (suggest.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return suggest.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return suggest.Snapshot{}, fmt.Errorf("session: read: %w", err)
	}
	var snapshot suggest.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return suggest.Snapshot{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return snapshot, nil
}

// List returns the stored session IDs, sorted.
func (s *FileStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("session: read dir: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the snapshot with the given session ID.
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (s *FileStore) path(id string) string {
	// Session IDs are UUIDs, but sanitize anyway so a corrupted ID
	// cannot escape the store directory.
	safe := filepath.Base(id)
	return filepath.Join(s.dir, safe+".json")
}
