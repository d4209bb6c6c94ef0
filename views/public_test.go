package views

import (
	"context"
	"strings"
	"testing"

	"github.com/eringen/snipmail"
)

func TestPublicSnippetEmitsMetadata(t *testing.T) {
	sn := snipmail.Snippet{ID: "abc", Title: "Hero banner"}
	meta := snipmail.PageMeta{
		Title:       "Hero banner",
		Description: "Full-width opener",
		URL:         "https://mail.example.com/p/abc/",
		OGType:      "article",
	}
	jsonLD := `{"@type":"WebSite","name":"Snipmail"}`

	var b strings.Builder
	if err := PublicSnippet(sn, "<p>body</p>", meta, jsonLD).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		`<link rel="canonical" href="https://mail.example.com/p/abc/">`,
		`<meta property="og:title" content="Hero banner">`,
		`<meta property="og:type" content="article">`,
		`<meta property="og:url" content="https://mail.example.com/p/abc/">`,
		`<script type="application/ld+json">{"@type":"WebSite","name":"Snipmail"}</script>`,
		`<p>body</p>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}
}

func TestPublicSnippetSkipsEmptyJsonLD(t *testing.T) {
	var b strings.Builder
	meta := snipmail.PageMeta{Title: "x", URL: "https://mail.example.com/p/x/", OGType: "article"}
	if err := PublicSnippet(snipmail.Snippet{ID: "x"}, "", meta, "").Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(b.String(), "ld+json") {
		t.Errorf("expected no JSON-LD block, got %s", b.String())
	}
}
