package snipmail

// Snippet is the core content type: a reusable HTML fragment with metadata.
// Composed emails are snippets too; the composer loads and saves them by id.
type Snippet struct {
	ID          string
	Title       string
	Description string
	HTML        string
	Category    string
	Tags        []string
	IsPublic    bool
	CreatedAt   string
	UpdatedAt   string
}

// Category groups snippets in the library sidebar.
type Category struct {
	ID   string
	Name string
}

// TextStyle is a reusable inline formatting template. HTMLTemplate contains
// a {text} placeholder that is replaced with the user's selection.
type TextStyle struct {
	ID           string
	Name         string
	HTMLTemplate string
	IconColor    string
	SortOrder    int
}

// Revision is a saved prior version of a snippet's HTML.
type Revision struct {
	ID        string
	SnippetID string
	Version   int
	HTML      string
	Note      string
	CreatedAt string
}

// Image holds metadata for an uploaded picture in the image library.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
