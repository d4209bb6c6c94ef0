package snipmail

import (
	"strings"
	"testing"
)

func TestWebsiteJsonLD(t *testing.T) {
	cfg := SiteConfig{
		Name:        "Snipmail",
		URL:         "https://mail.example.com",
		Description: "Snippet library",
		Author:      "Jo Example",
	}
	got := WebsiteJsonLD(cfg)
	for _, want := range []string{
		`"@type":"WebSite"`,
		`"name":"Snipmail"`,
		`"url":"https://mail.example.com"`,
		`"name":"Jo Example"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("WebsiteJsonLD = %s, missing %s", got, want)
		}
	}
}

func TestWebsiteJsonLDOmitsEmptyAuthor(t *testing.T) {
	got := WebsiteJsonLD(SiteConfig{Name: "Snipmail", URL: "https://mail.example.com"})
	if strings.Contains(got, "author") {
		t.Errorf("WebsiteJsonLD = %s, expected no author entry", got)
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://mail.example.com", []string{"p", "abc"}, "https://mail.example.com/p/abc/"},
		{"https://mail.example.com/sub", []string{"p", "abc"}, "https://mail.example.com/sub/p/abc/"},
		{"https://mail.example.com", nil, "https://mail.example.com"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}
