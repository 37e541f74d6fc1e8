package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no session exists under the id.
	ErrNotFound = errors.New("session not found")
	// ErrCorrupt is returned when a session file exists but cannot be
	// decoded. Corrupt files are surfaced, never repaired or deleted.
	ErrCorrupt = errors.New("session file corrupt")
)

const indexFile = "index.json"

// IndexEntry is one row of the session index, enough to list sessions
// without loading their full documents.
type IndexEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Turns     int       `json:"turns"`
	Timeline  int       `json:"timeline"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists sessions as one JSON document each under dir, plus an
// index.json. All writes are atomic (temp file then rename) and at most
// one writer runs per session id.
type Store struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	return &Store{dir: dir, locks: map[string]*sync.Mutex{}}, nil
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Dir returns the directory holding the session documents.
func (s *Store) Dir() string { return s.dir }

// Save writes the session document atomically and refreshes the index.
func (s *Store) Save(sess *Session) error {
	if !validID(sess.ID) {
		return fmt.Errorf("invalid session id %q", sess.ID)
	}
	lock := s.lockFor(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	sess.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}
	if err := atomicWrite(s.path(sess.ID), data); err != nil {
		return fmt.Errorf("writing session %s: %w", sess.ID, err)
	}
	return s.updateIndex(func(idx map[string]IndexEntry) {
		idx[sess.ID] = IndexEntry{
			ID:        sess.ID,
			Name:      sess.Name,
			Turns:     len(sess.Conversation),
			Timeline:  len(sess.Timeline),
			UpdatedAt: sess.UpdatedAt,
		}
	})
}

// Load reads one session. Missing files yield ErrNotFound; undecodable
// or shape-mismatched documents yield ErrCorrupt.
func (s *Store) Load(id string) (*Session, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, id, err)
	}
	if sess.ID != id {
		return nil, fmt.Errorf("%w: %s: document id is %q", ErrCorrupt, id, sess.ID)
	}
	return &sess, nil
}

// Delete removes the session document and its index row. Deleting a
// missing session yields ErrNotFound.
func (s *Store) Delete(id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return s.updateIndex(func(idx map[string]IndexEntry) {
		delete(idx, id)
	})
}

// List returns the index rows, most recently updated first. A missing
// index is rebuilt by scanning the directory.
func (s *Store) List() ([]IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	entries := make([]IndexEntry, 0, len(idx))
	for _, e := range idx {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

func (s *Store) updateIndex(apply func(map[string]IndexEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	apply(idx)
	entries := make([]IndexEntry, 0, len(idx))
	for _, e := range idx {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := atomicWrite(filepath.Join(s.dir, indexFile), data); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// readIndex loads index.json, rebuilding it from the session files when
// absent. Caller holds s.mu.
func (s *Store) readIndex() (map[string]IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return s.rebuildIndex()
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A damaged index is recoverable, unlike a damaged session.
		return s.rebuildIndex()
	}
	idx := make(map[string]IndexEntry, len(entries))
	for _, e := range entries {
		idx[e.ID] = e
	}
	return idx, nil
}

func (s *Store) rebuildIndex() (map[string]IndexEntry, error) {
	names, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	idx := map[string]IndexEntry{}
	for _, name := range names {
		base := filepath.Base(name)
		if base == indexFile {
			continue
		}
		id := strings.TrimSuffix(base, ".json")
		data, err := os.ReadFile(name)
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil || sess.ID != id {
			// Corrupt documents stay on disk; they surface on Load.
			continue
		}
		idx[id] = IndexEntry{
			ID:        sess.ID,
			Name:      sess.Name,
			Turns:     len(sess.Conversation),
			Timeline:  len(sess.Timeline),
			UpdatedAt: sess.UpdatedAt,
		}
	}
	return idx, nil
}

// atomicWrite publishes data at path via a temp file in the same
// directory, an fsync and a rename, so readers never observe a
// half-written document.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
