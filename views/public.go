package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/snipmail"
)

// PublicSnippet renders a shared snippet at /p/:id. safeHTML has already
// been through the sanitizer; it is written without further escaping, as is
// jsonLD, which is marshalled JSON.
func PublicSnippet(sn snipmail.Snippet, safeHTML string, meta snipmail.PageMeta, jsonLD string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var err error
		write := func(format string, args ...any) {
			if err == nil {
				_, err = fmt.Fprintf(w, format, args...)
			}
		}
		write(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		write(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		write(`<title>%s</title>`, esc(meta.Title))
		if meta.Description != "" {
			write(`<meta name="description" content="%s">`, attr(meta.Description))
		}
		write(`<link rel="canonical" href="%s">`, attr(meta.URL))
		write(`<meta property="og:title" content="%s">`, attr(meta.Title))
		if meta.Description != "" {
			write(`<meta property="og:description" content="%s">`, attr(meta.Description))
		}
		write(`<meta property="og:type" content="%s">`, attr(meta.OGType))
		write(`<meta property="og:url" content="%s">`, attr(meta.URL))
		if jsonLD != "" {
			write(`<script type="application/ld+json">%s</script>`, jsonLD)
		}
		write(`<link rel="stylesheet" href="/public/app.css">`)
		write(`</head><body class="public-snippet"><main>`)
		write(`%s`, safeHTML)
		write(`</main></body></html>`)
		return err
	})
}

// NotFound is the 404 page.
func NotFound() templ.Component {
	return errorPage("404", "That page does not exist.")
}

// ServerError is the 5xx page.
func ServerError() templ.Component {
	return errorPage("Something broke", "An unexpected error occurred. Try again in a moment.")
}

func errorPage(heading, detail string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<title>%s</title><link rel="stylesheet" href="/public/app.css"></head>`+
			`<body class="error-page"><main><h1>%s</h1><p>%s</p><p><a href="/">Back to the library</a></p></main></body></html>`,
			esc(heading), esc(heading), esc(detail))
		return err
	})
}
