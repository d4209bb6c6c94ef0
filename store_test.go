package snipmail

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_snipmail.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.Remove(path)
	}

	return s, cleanup
}

func testSnippet(id, title string) Snippet {
	now := time.Now().UTC().Format(time.RFC3339)
	return Snippet{
		ID:        id,
		Title:     title,
		HTML:      "<h1>" + title + "</h1>",
		Category:  "newsletters",
		Tags:      []string{"promo", "header"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestNewStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if s == nil {
		t.Fatal("store should not be nil")
	}
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestCreateAndGetSnippet(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	sn := testSnippet("sn-1", "Hero Banner")
	sn.Description = "Top-of-email hero"
	sn.IsPublic = true
	if err := s.CreateSnippet(sn); err != nil {
		t.Fatalf("CreateSnippet failed: %v", err)
	}

	got, err := s.GetSnippet("sn-1")
	if err != nil {
		t.Fatalf("GetSnippet failed: %v", err)
	}
	if got.Title != sn.Title {
		t.Errorf("Title = %q, want %q", got.Title, sn.Title)
	}
	if got.Description != sn.Description {
		t.Errorf("Description = %q, want %q", got.Description, sn.Description)
	}
	if got.HTML != sn.HTML {
		t.Errorf("HTML = %q, want %q", got.HTML, sn.HTML)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "promo" || got.Tags[1] != "header" {
		t.Errorf("Tags = %v, want [promo header]", got.Tags)
	}
	if !got.IsPublic {
		t.Errorf("IsPublic = false, want true")
	}
}

func TestGetSnippetNotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if _, err := s.GetSnippet("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSnippet error = %v, want ErrNotFound", err)
	}
}

func TestListSnippetsFilters(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a := testSnippet("sn-a", "A")
	a.Category = "newsletters"
	a.Tags = []string{"promo"}
	b := testSnippet("sn-b", "B")
	b.Category = "transactional"
	b.Tags = []string{"promo", "footer"}
	c := testSnippet("sn-c", "C")
	c.Category = "transactional"
	c.Tags = []string{"footer"}
	for _, sn := range []Snippet{a, b, c} {
		if err := s.CreateSnippet(sn); err != nil {
			t.Fatalf("CreateSnippet failed: %v", err)
		}
	}

	all, err := s.ListSnippets("", nil)
	if err != nil {
		t.Fatalf("ListSnippets failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered count = %d, want 3", len(all))
	}

	byCat, err := s.ListSnippets("transactional", nil)
	if err != nil {
		t.Fatalf("ListSnippets by category failed: %v", err)
	}
	if len(byCat) != 2 {
		t.Errorf("category filter count = %d, want 2", len(byCat))
	}

	// All given tags must match.
	byTags, err := s.ListSnippets("", []string{"promo", "footer"})
	if err != nil {
		t.Fatalf("ListSnippets by tags failed: %v", err)
	}
	if len(byTags) != 1 || byTags[0].ID != "sn-b" {
		t.Errorf("tag filter = %v, want just sn-b", byTags)
	}

	both, err := s.ListSnippets("transactional", []string{"footer"})
	if err != nil {
		t.Fatalf("ListSnippets combined failed: %v", err)
	}
	if len(both) != 2 {
		t.Errorf("combined filter count = %d, want 2", len(both))
	}
}

func TestListPublicSnippets(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	pub := testSnippet("sn-pub", "Public")
	pub.IsPublic = true
	priv := testSnippet("sn-priv", "Private")
	for _, sn := range []Snippet{pub, priv} {
		if err := s.CreateSnippet(sn); err != nil {
			t.Fatalf("CreateSnippet failed: %v", err)
		}
	}

	got, err := s.ListPublicSnippets()
	if err != nil {
		t.Fatalf("ListPublicSnippets failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "sn-pub" {
		t.Errorf("ListPublicSnippets = %v, want just sn-pub", got)
	}

	if _, err := s.GetPublicSnippet("sn-priv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPublicSnippet on private = %v, want ErrNotFound", err)
	}
}

func TestUpdateSnippetOptimisticLock(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	sn := testSnippet("sn-1", "Original")
	if err := s.CreateSnippet(sn); err != nil {
		t.Fatalf("CreateSnippet failed: %v", err)
	}

	updated := sn
	updated.Title = "Edited"
	updated.UpdatedAt = time.Now().UTC().Add(time.Second).Format(time.RFC3339)
	if err := s.UpdateSnippet(updated, sn.UpdatedAt); err != nil {
		t.Fatalf("UpdateSnippet failed: %v", err)
	}

	// A second writer still holding the old timestamp must get a conflict.
	stale := sn
	stale.Title = "Stale edit"
	stale.UpdatedAt = time.Now().UTC().Add(2 * time.Second).Format(time.RFC3339)
	if err := s.UpdateSnippet(stale, sn.UpdatedAt); !errors.Is(err, ErrConflict) {
		t.Errorf("stale update error = %v, want ErrConflict", err)
	}

	got, err := s.GetSnippet("sn-1")
	if err != nil {
		t.Fatalf("GetSnippet failed: %v", err)
	}
	if got.Title != "Edited" {
		t.Errorf("Title = %q, want %q", got.Title, "Edited")
	}
}

func TestUpdateSnippetMissing(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	sn := testSnippet("ghost", "Ghost")
	if err := s.UpdateSnippet(sn, sn.UpdatedAt); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of missing snippet = %v, want ErrNotFound", err)
	}
}

func TestDeleteSnippetRemovesRevisions(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	sn := testSnippet("sn-1", "Doomed")
	if err := s.CreateSnippet(sn); err != nil {
		t.Fatalf("CreateSnippet failed: %v", err)
	}
	if _, err := s.SaveRevision("rev-1", "sn-1", "<p>old</p>", "edit", sn.UpdatedAt); err != nil {
		t.Fatalf("SaveRevision failed: %v", err)
	}

	if err := s.DeleteSnippet("sn-1"); err != nil {
		t.Fatalf("DeleteSnippet failed: %v", err)
	}
	if _, err := s.GetSnippet("sn-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSnippet after delete = %v, want ErrNotFound", err)
	}
	revs, err := s.ListRevisions("sn-1")
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("revisions after delete = %d, want 0", len(revs))
	}
}

func TestListTags(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a := testSnippet("sn-a", "A")
	a.Tags = []string{"Promo", "header"}
	b := testSnippet("sn-b", "B")
	b.Tags = []string{"promo", "footer"}
	for _, sn := range []Snippet{a, b} {
		if err := s.CreateSnippet(sn); err != nil {
			t.Fatalf("CreateSnippet failed: %v", err)
		}
	}

	tags, err := s.ListTags()
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	want := []string{"footer", "header", "promo"}
	if len(tags) != len(want) {
		t.Fatalf("ListTags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("ListTags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestRevisionVersioning(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	sn := testSnippet("sn-1", "Versioned")
	if err := s.CreateSnippet(sn); err != nil {
		t.Fatalf("CreateSnippet failed: %v", err)
	}

	v1, err := s.SaveRevision("rev-1", "sn-1", "<p>one</p>", "edit", sn.UpdatedAt)
	if err != nil {
		t.Fatalf("SaveRevision failed: %v", err)
	}
	v2, err := s.SaveRevision("rev-2", "sn-1", "<p>two</p>", "edit", sn.UpdatedAt)
	if err != nil {
		t.Fatalf("SaveRevision failed: %v", err)
	}
	if v1 != 1 || v2 != 2 {
		t.Errorf("versions = %d, %d, want 1, 2", v1, v2)
	}

	revs, err := s.ListRevisions("sn-1")
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	if len(revs) != 2 || revs[0].Version != 2 {
		t.Errorf("ListRevisions = %v, want newest first", revs)
	}

	rev, err := s.GetRevision("sn-1", 1)
	if err != nil {
		t.Fatalf("GetRevision failed: %v", err)
	}
	if rev.HTML != "<p>one</p>" {
		t.Errorf("revision 1 HTML = %q, want %q", rev.HTML, "<p>one</p>")
	}
}

func TestCategoriesCRUD(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if err := s.SaveCategory(Category{ID: "newsletters", Name: "Newsletters"}); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}
	if err := s.SaveCategory(Category{ID: "newsletters", Name: "Weekly Newsletters"}); err != nil {
		t.Fatalf("SaveCategory upsert failed: %v", err)
	}

	cats, err := s.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Weekly Newsletters" {
		t.Errorf("ListCategories = %v, want single upserted row", cats)
	}

	if err := s.DeleteCategory("newsletters"); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	cats, _ = s.ListCategories()
	if len(cats) != 0 {
		t.Errorf("categories after delete = %d, want 0", len(cats))
	}
}

func TestTextStylesOrdering(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	styles := []TextStyle{
		{ID: "s-1", Name: "Highlight", HTMLTemplate: `<span style="background:#ff0">{text}</span>`, SortOrder: 2},
		{ID: "s-2", Name: "Button", HTMLTemplate: `<a class="btn" href="#">{text}</a>`, SortOrder: 1},
	}
	for _, ts := range styles {
		if err := s.SaveTextStyle(ts); err != nil {
			t.Fatalf("SaveTextStyle failed: %v", err)
		}
	}

	got, err := s.ListTextStyles()
	if err != nil {
		t.Fatalf("ListTextStyles failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "s-2" {
		t.Errorf("ListTextStyles = %v, want sort_order ascending", got)
	}
}

func TestImagesCRUD(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	img := Image{
		Filename:     "banner.jpg",
		OriginalName: "Banner.PNG",
		Width:        800,
		Height:       300,
		Size:         12345,
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.SaveImage(img); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	images, err := s.ListImages()
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 1 || images[0].Filename != "banner.jpg" {
		t.Errorf("ListImages = %v, want banner.jpg", images)
	}

	if err := s.DeleteImage("banner.jpg"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	images, _ = s.ListImages()
	if len(images) != 0 {
		t.Errorf("images after delete = %d, want 0", len(images))
	}
}

func TestParseTagsRoundTrip(t *testing.T) {
	got := ParseTags(tagString([]string{"Promo", " header ", ""}))
	if len(got) != 2 || got[0] != "promo" || got[1] != "header" {
		t.Errorf("round trip = %v, want [promo header]", got)
	}
	if ParseTags("") != nil {
		t.Errorf("ParseTags(\"\") should be nil")
	}
}
