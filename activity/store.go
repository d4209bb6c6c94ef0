// Package activity keeps a lightweight audit log of editing events: snippet
// saves, composer sessions, uploads. It lives in its own database so the log
// can grow and be cleaned up without touching the content database.
package activity

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one logged editing action.
type Event struct {
	ID        int64
	SnippetID string
	Action    string
	Detail    string
	CreatedAt time.Time
}

// Store wraps the activity SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the activity database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create activity dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open activity db: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    snippet_id TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_events_snippet ON events(snippet_id);
`)
	return err
}

// SaveEvent records one action.
func (s *Store) SaveEvent(snippetID, action, detail string) error {
	_, err := s.db.Exec(`INSERT INTO events (snippet_id, action, detail, created_at) VALUES (?, ?, ?, ?)`,
		snippetID, action, detail, time.Now().UTC())
	return err
}

// ListRecent returns the latest events, newest first.
func (s *Store) ListRecent(limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT id, snippet_id, action, detail, created_at FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SnippetID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListForSnippet returns the latest events for one snippet, newest first.
func (s *Store) ListForSnippet(snippetID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT id, snippet_id, action, detail, created_at FROM events WHERE snippet_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		snippetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SnippetID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CleanupOldEvents deletes events older than retentionDays.
func (s *Store) CleanupOldEvents(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	_, err := s.db.Exec(`DELETE FROM events WHERE created_at < ?`, cutoff)
	return err
}

// StartCleanupScheduler runs periodic cleanup of old events. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldEvents(retentionDays); err != nil {
					fmt.Printf("activity cleanup error: %v\n", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
