package snipmail

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrConflict is returned when an update's precondition timestamp no longer
// matches the stored row, meaning another save landed in between.
var ErrConflict = errors.New("snipmail: record was modified concurrently")

// Store wraps a SQLite database and provides CRUD operations for snippets,
// categories, text styles, revisions and uploaded images.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS snippets (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    html TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    is_public INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snippets_category ON snippets(category);
CREATE INDEX IF NOT EXISTS idx_snippets_updated ON snippets(updated_at DESC);

CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS text_styles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    html_template TEXT NOT NULL,
    icon_color TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS revisions (
    id TEXT PRIMARY KEY,
    snippet_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    html TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_snippet ON revisions(snippet_id, version DESC);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const snippetCols = `id, title, description, html, category, tags, is_public, created_at, updated_at`

func scanSnippet(scan func(...any) error) (Snippet, error) {
	var sn Snippet
	var tags string
	var public int
	if err := scan(&sn.ID, &sn.Title, &sn.Description, &sn.HTML, &sn.Category,
		&tags, &public, &sn.CreatedAt, &sn.UpdatedAt); err != nil {
		return Snippet{}, err
	}
	sn.Tags = ParseTags(tags)
	sn.IsPublic = public == 1
	return sn, nil
}

func (s *Store) querySnippets(query string, args ...any) ([]Snippet, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows.Scan)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

// ListSnippets returns snippets ordered by last update descending. If category
// is non-empty, results are limited to that category. Every tag given must be
// present on a snippet for it to match.
func (s *Store) ListSnippets(category string, tags []string) ([]Snippet, error) {
	query := `SELECT ` + snippetCols + ` FROM snippets`
	var conds []string
	var args []any
	if category != "" {
		conds = append(conds, `category = ?`)
		args = append(args, category)
	}
	for _, t := range FilterEmpty(tags) {
		conds = append(conds, `instr(lower(tags), ',' || ? || ',') > 0`)
		args = append(args, strings.ToLower(t))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY updated_at DESC`
	return s.querySnippets(query, args...)
}

// ListPublicSnippets returns snippets shared at /p/:id, newest first.
func (s *Store) ListPublicSnippets() ([]Snippet, error) {
	return s.querySnippets(`SELECT ` + snippetCols + ` FROM snippets WHERE is_public = 1 ORDER BY updated_at DESC`)
}

// GetSnippet returns a single snippet by id.
func (s *Store) GetSnippet(id string) (Snippet, error) {
	return scanSnippet(s.db.QueryRow(`SELECT `+snippetCols+` FROM snippets WHERE id = ?`, id).Scan)
}

// GetPublicSnippet returns a snippet only if it is shared publicly.
func (s *Store) GetPublicSnippet(id string) (Snippet, error) {
	return scanSnippet(s.db.QueryRow(`SELECT `+snippetCols+` FROM snippets WHERE id = ? AND is_public = 1`, id).Scan)
}

// CountSnippets returns the number of snippets in the library.
func (s *Store) CountSnippets() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snippets`).Scan(&n)
	return n, err
}

// CreateSnippet inserts a new snippet. Tags are normalized to lowercase.
func (s *Store) CreateSnippet(sn Snippet) error {
	_, err := s.db.Exec(`INSERT INTO snippets (`+snippetCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sn.ID, sn.Title, sn.Description, sn.HTML, sn.Category,
		tagString(sn.Tags), boolInt(sn.IsPublic), sn.CreatedAt, sn.UpdatedAt)
	return err
}

// UpdateSnippet writes sn only if the stored row still carries
// expectedUpdatedAt. On a mismatch the caller gets ErrConflict and must
// reload before retrying.
func (s *Store) UpdateSnippet(sn Snippet, expectedUpdatedAt string) error {
	res, err := s.db.Exec(`UPDATE snippets
		SET title = ?, description = ?, html = ?, category = ?, tags = ?, is_public = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?`,
		sn.Title, sn.Description, sn.HTML, sn.Category, tagString(sn.Tags),
		boolInt(sn.IsPublic), sn.UpdatedAt, sn.ID, expectedUpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetSnippet(sn.ID); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// DeleteSnippet removes a snippet and its revisions.
func (s *Store) DeleteSnippet(id string) error {
	if _, err := s.db.Exec(`DELETE FROM revisions WHERE snippet_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM snippets WHERE id = ?`, id)
	return err
}

// ListTags returns a sorted, deduplicated slice of all tags across the library.
func (s *Store) ListTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT tags FROM snippets WHERE tags != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var result []string
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// ListCategories returns all categories sorted by name.
func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// SaveCategory upserts a category.
func (s *Store) SaveCategory(c Category) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name)
	return err
}

// DeleteCategory removes a category. Snippets keep their category string.
func (s *Store) DeleteCategory(id string) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	return err
}

// ListTextStyles returns formatting styles in toolbar order.
func (s *Store) ListTextStyles() ([]TextStyle, error) {
	rows, err := s.db.Query(`SELECT id, name, html_template, icon_color, sort_order FROM text_styles ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var styles []TextStyle
	for rows.Next() {
		var ts TextStyle
		if err := rows.Scan(&ts.ID, &ts.Name, &ts.HTMLTemplate, &ts.IconColor, &ts.SortOrder); err != nil {
			return nil, err
		}
		styles = append(styles, ts)
	}
	return styles, rows.Err()
}

// SaveTextStyle upserts a text style.
func (s *Store) SaveTextStyle(ts TextStyle) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO text_styles (id, name, html_template, icon_color, sort_order) VALUES (?, ?, ?, ?, ?)`,
		ts.ID, ts.Name, ts.HTMLTemplate, ts.IconColor, ts.SortOrder)
	return err
}

// DeleteTextStyle removes a text style.
func (s *Store) DeleteTextStyle(id string) error {
	_, err := s.db.Exec(`DELETE FROM text_styles WHERE id = ?`, id)
	return err
}

// SaveRevision stores html as the next version of a snippet's revision
// history and returns the assigned version number.
func (s *Store) SaveRevision(id, snippetID, html, note, createdAt string) (int, error) {
	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) + 1 FROM revisions WHERE snippet_id = ?`, snippetID).Scan(&version); err != nil {
		return 0, err
	}
	_, err := s.db.Exec(`INSERT INTO revisions (id, snippet_id, version, html, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, snippetID, version, html, note, createdAt)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// ListRevisions returns a snippet's revisions, newest first.
func (s *Store) ListRevisions(snippetID string) ([]Revision, error) {
	rows, err := s.db.Query(`SELECT id, snippet_id, version, html, note, created_at FROM revisions WHERE snippet_id = ? ORDER BY version DESC`, snippetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.SnippetID, &r.Version, &r.HTML, &r.Note, &r.CreatedAt); err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// GetRevision returns one revision of a snippet by version number.
func (s *Store) GetRevision(snippetID string, version int) (Revision, error) {
	var r Revision
	err := s.db.QueryRow(`SELECT id, snippet_id, version, html, note, created_at FROM revisions WHERE snippet_id = ? AND version = ?`,
		snippetID, version).Scan(&r.ID, &r.SnippetID, &r.Version, &r.HTML, &r.Note, &r.CreatedAt)
	return r, err
}

// SaveImage records an uploaded image's metadata.
func (s *Store) SaveImage(img Image) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes an image record.
func (s *Store) DeleteImage(filename string) error {
	_, err := s.db.Exec(`DELETE FROM images WHERE filename = ?`, filename)
	return err
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// tagString serializes tags comma-wrapped (",a,b,") so per-tag filtering can
// match ",tag," with instr(). Tags are normalized to lowercase.
func tagString(tags []string) string {
	tags = FilterEmpty(tags)
	if len(tags) == 0 {
		return ""
	}
	normalized := make([]string, len(tags))
	for i, t := range tags {
		normalized[i] = strings.ToLower(t)
	}
	return "," + strings.Join(normalized, ",") + ","
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
