// Package views holds the templ components for snipmail's pages. The root
// package never imports views; cmd/snipmail wires Funcs() into the App's
// ViewFuncs, so installations can swap any page for their own component.
package views

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// esc escapes text for safe interpolation into markup.
func esc(s string) string {
	return html.EscapeString(s)
}

// attr escapes a value for use inside a double-quoted attribute.
func attr(s string) string {
	return html.EscapeString(s)
}

// layout wraps body in the application shell. csrfToken is exposed in a meta
// tag so composer.js can send it back as X-CSRF-Token.
func layout(title, csrfToken string, authed bool, body func(w io.Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&b, `<meta name="csrf-token" content="%s">`, attr(csrfToken))
		fmt.Fprintf(&b, `<title>%s</title>`, esc(title))
		b.WriteString(`<link rel="stylesheet" href="/public/app.css">`)
		b.WriteString(`<script src="/public/composer.js" defer></script>`)
		b.WriteString(`</head><body>`)
		if authed {
			b.WriteString(`<nav class="topnav">`)
			b.WriteString(`<a href="/" class="brand">Snipmail</a>`)
			b.WriteString(`<a href="/snippets/new/">New snippet</a>`)
			b.WriteString(`<a href="/images/">Images</a>`)
			b.WriteString(`<a href="/settings/">Settings</a>`)
			fmt.Fprintf(&b, `<form method="post" action="/logout/" class="inline"><input type="hidden" name="_csrf" value="%s"><button type="submit">Log out</button></form>`, attr(csrfToken))
			b.WriteString(`</nav>`)
		}
		b.WriteString(`<main>`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		body(w)
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// flash renders a one-line status message when msg is non-empty.
func flash(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(w, `<p class="flash">%s</p>`, esc(msg))
}
