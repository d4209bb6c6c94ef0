package activity

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test_activity.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListRecent(t *testing.T) {
	s := setupTestStore(t)

	if err := s.SaveEvent("sn-1", "snippet_created", "Hero"); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}
	if err := s.SaveEvent("sn-1", "composer_saved", ""); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}
	if err := s.SaveEvent("", "image_uploaded", "banner.jpg"); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	events, err := s.ListRecent(10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("ListRecent count = %d, want 3", len(events))
	}
	if events[0].Action != "image_uploaded" {
		t.Errorf("newest action = %q, want image_uploaded", events[0].Action)
	}
}

func TestListForSnippet(t *testing.T) {
	s := setupTestStore(t)

	s.SaveEvent("sn-1", "snippet_created", "")
	s.SaveEvent("sn-2", "snippet_created", "")
	s.SaveEvent("sn-1", "composer_saved", "")

	events, err := s.ListForSnippet("sn-1", 10)
	if err != nil {
		t.Fatalf("ListForSnippet failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("ListForSnippet count = %d, want 2", len(events))
	}
}

func TestCleanupOldEvents(t *testing.T) {
	s := setupTestStore(t)

	old := time.Now().UTC().AddDate(0, 0, -120)
	if _, err := s.db.Exec(`INSERT INTO events (snippet_id, action, detail, created_at) VALUES ('sn-old', 'snippet_created', '', ?)`, old); err != nil {
		t.Fatalf("insert old event: %v", err)
	}
	if err := s.SaveEvent("sn-new", "snippet_created", ""); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	if err := s.CleanupOldEvents(90); err != nil {
		t.Fatalf("CleanupOldEvents failed: %v", err)
	}

	events, err := s.ListRecent(10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 1 || events[0].SnippetID != "sn-new" {
		t.Errorf("events after cleanup = %v, want only sn-new", events)
	}
}
