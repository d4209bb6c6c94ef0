package activity

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Handler serves the activity log pages.
type Handler struct {
	store *Store
}

// NewHandler creates a Handler backed by the given store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the activity routes. auth gates every route; the
// log exposes titles and filenames, so it is admin-only.
func (h *Handler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/activity/", h.Page, auth)
	e.GET("/activity/fragments/recent", h.RecentFragment, auth)
}

// Page renders the full activity page.
func (h *Handler) Page(c echo.Context) error {
	events, err := h.store.ListRecent(parseLimit(c))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return page(events).Render(c.Request().Context(), c.Response().Writer)
}

// RecentFragment renders just the event table, for in-place refresh.
func (h *Handler) RecentFragment(c echo.Context) error {
	var events []Event
	var err error
	if id := c.QueryParam("snippet_id"); id != "" {
		events, err = h.store.ListForSnippet(id, parseLimit(c))
	} else {
		events, err = h.store.ListRecent(parseLimit(c))
	}
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return table(events).Render(c.Request().Context(), c.Response().Writer)
}

func parseLimit(c echo.Context) int {
	n, _ := strconv.Atoi(c.QueryParam("limit"))
	return n
}

func page(events []Event) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<title>Activity – Snipmail</title><link rel="stylesheet" href="/public/app.css"></head>`+
			`<body><main><h1>Activity</h1><p><a href="/">Back to the library</a></p>`); err != nil {
			return err
		}
		if err := table(events).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func table(events []Event) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var err error
		write := func(format string, args ...any) {
			if err == nil {
				_, err = fmt.Fprintf(w, format, args...)
			}
		}
		if len(events) == 0 {
			write(`<p class="empty">Nothing logged yet.</p>`)
			return err
		}
		write(`<table class="activity-table"><thead><tr><th>When</th><th>Action</th><th>Snippet</th><th>Detail</th></tr></thead><tbody>`)
		for _, e := range events {
			write(`<tr><td>%s</td><td>%s</td>`,
				html.EscapeString(e.CreatedAt.Format("Jan 2 15:04:05")),
				html.EscapeString(e.Action))
			if e.SnippetID != "" {
				write(`<td><a href="/snippets/%s/">%s</a></td>`,
					html.EscapeString(e.SnippetID), html.EscapeString(shorten(e.SnippetID)))
			} else {
				write(`<td></td>`)
			}
			write(`<td>%s</td></tr>`, html.EscapeString(e.Detail))
		}
		write(`</tbody></table>`)
		return err
	})
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
