package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	sess := New("bail commercial")
	sess.RecordTurn(RoleUser, "Quelles sont les règles du bail commercial ?", "")
	sess.AddTimelineEntry(TimelineEntry{
		Date: "1989-07-06", TextID: "JORFTEXT000000509310", Title: "Loi n° 89-462", Kind: "loi",
	})

	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "bail commercial" {
		t.Errorf("name = %q", got.Name)
	}
	if len(got.Conversation) != 1 || len(got.Timeline) != 1 {
		t.Errorf("round trip lost data: %d turns, %d timeline", len(got.Conversation), len(got.Timeline))
	}
	if got.Timeline[0].TextID != "JORFTEXT000000509310" {
		t.Errorf("timeline entry mangled: %+v", got.Timeline[0])
	}
}

func TestLoadMissingSession(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load("a0000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadCorruptSession(t *testing.T) {
	store := newTestStore(t)
	sess := New("x")
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	// Simulate a partial write: truncate the document mid-JSON.
	path := filepath.Join(store.dir, sess.ID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)/2], 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = store.Load(sess.ID)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	// The file is surfaced as corrupt, never repaired or removed.
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("corrupt file must stay on disk: %v", statErr)
	}
}

func TestLoadIDMismatchIsCorrupt(t *testing.T) {
	store := newTestStore(t)
	other := New("x")
	data := `{"id": "` + other.ID + `", "name": "x", "conversation": [], "timeline": []}`
	if err := os.WriteFile(filepath.Join(store.dir, "b0000000-0000-0000-0000-000000000000.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := store.Load("b0000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on id mismatch, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	sess := New("x")
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestListFromIndex(t *testing.T) {
	store := newTestStore(t)
	a := New("première")
	b := New("seconde")
	for _, sess := range []*Session{a, b} {
		sess.RecordTurn(RoleUser, "q", "")
		if err := store.Save(sess); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Most recently saved first.
	if entries[0].ID != b.ID {
		t.Errorf("expected most recent first, got %s", entries[0].ID)
	}
	if entries[0].Turns != 1 {
		t.Errorf("turn count wrong: %+v", entries[0])
	}
}

func TestListRebuildsMissingIndex(t *testing.T) {
	store := newTestStore(t)
	sess := New("survivante")
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(store.dir, indexFile)); err != nil {
		t.Fatal(err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != sess.ID {
		t.Errorf("index not rebuilt from session files: %+v", entries)
	}
}

func TestSaveRejectsUnsafeIDs(t *testing.T) {
	store := newTestStore(t)
	sess := New("x")
	sess.ID = "../escape"
	if err := store.Save(sess); err == nil {
		t.Fatal("expected rejection of path-traversal id")
	}
	if _, err := store.Load("../escape"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unsafe id, got %v", err)
	}
}

func TestConcurrentSavesSameSession(t *testing.T) {
	store := newTestStore(t)
	sess := New("concurrente")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Save(sess); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("Load after concurrent saves: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("document damaged: %+v", got)
	}

	// No stray temp files left behind.
	names, _ := filepath.Glob(filepath.Join(store.dir, "*.tmp-*"))
	if len(names) != 0 {
		t.Errorf("temp files leaked: %v", names)
	}
}

func TestNoPartialDocumentVisible(t *testing.T) {
	store := newTestStore(t)
	sess := New("atomique")
	for i := 0; i < 20; i++ {
		sess.RecordTurn(RoleUser, strings.Repeat("x", 1024), "")
	}
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}
	// A concurrent reader during Save sees either nothing or a full
	// document; after Save it must decode cleanly.
	if _, err := store.Load(sess.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
