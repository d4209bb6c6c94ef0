package snipmail

import (
	"crypto/subtle"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Form validation limits. Oversized submissions are rejected with a message
// rather than truncated.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxHTMLLen        = 100_000
)

func (a *App) handleLoginPage(c echo.Context) error {
	if IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return Render(c, a.Views.Login(false, CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}
	a.loginLimiter.Record(ip)
	return Render(c, a.Views.Login(true, CsrfToken(c)))
}

func handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleSnippetNew(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	categories, err := a.Cache.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.SnippetForm(Snippet{}, categories, true, CsrfToken(c)))
}

func (a *App) handleSnippetDetail(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	sn, err := a.Store.GetSnippet(c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	revisions, err := a.Store.ListRevisions(sn.ID)
	if err != nil {
		return err
	}
	return Render(c, a.Views.SnippetDetail(sn, revisions, CsrfToken(c)))
}

func (a *App) handleSnippetEdit(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	sn, err := a.Store.GetSnippet(c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	categories, err := a.Cache.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.SnippetForm(sn, categories, false, CsrfToken(c)))
}

func validateSnippetForm(title, description, html string) string {
	switch {
	case title == "":
		return "Title is required."
	case len(title) > maxTitleLen:
		return "Title is too long."
	case len(description) > maxDescriptionLen:
		return "Description is too long."
	case html == "":
		return "HTML content is required."
	case len(html) > maxHTMLLen:
		return "HTML content is too large."
	}
	return ""
}

func (a *App) handleSnippetSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	id := strings.TrimSpace(c.FormValue("id"))
	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	html := c.FormValue("html")
	if msg := validateSnippetForm(title, description, html); msg != "" {
		return c.Redirect(http.StatusSeeOther, "/?msg="+PathEscape(msg))
	}
	sn := Snippet{
		ID:          id,
		Title:       title,
		Description: description,
		HTML:        html,
		Category:    strings.TrimSpace(c.FormValue("category")),
		Tags:        SplitTags(c.FormValue("tags")),
		IsPublic:    c.FormValue("is_public") != "",
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	if id == "" {
		sn.ID = uuid.NewString()
		sn.CreatedAt = sn.UpdatedAt
		if err := a.Store.CreateSnippet(sn); err != nil {
			return err
		}
		a.recordActivity(sn.ID, "snippet_created", title)
	} else {
		prev, err := a.Store.GetSnippet(id)
		if err != nil {
			if err == sql.ErrNoRows {
				return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
			}
			return err
		}
		expected := c.FormValue("expected_updated_at")
		if expected == "" {
			expected = prev.UpdatedAt
		}
		if err := a.Store.UpdateSnippet(sn, expected); err != nil {
			if err == ErrConflict {
				return c.Redirect(http.StatusSeeOther,
					"/snippets/"+id+"/edit/?msg="+PathEscape("Saved elsewhere since you opened this. Reload to pick up the latest version."))
			}
			return err
		}
		if prev.HTML != sn.HTML {
			if _, err := a.Store.SaveRevision(uuid.NewString(), id, prev.HTML, "edit", sn.UpdatedAt); err != nil {
				return err
			}
		}
		a.recordActivity(id, "snippet_updated", title)
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/snippets/"+sn.ID+"/?msg=saved")
}

// handleSnippetRestore copies an old revision's HTML back onto the snippet.
// The current HTML is recorded as a new revision first, so a restore is
// itself undoable.
func (a *App) handleSnippetRestore(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	id := c.Param("id")
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		return c.NoContent(http.StatusBadRequest)
	}
	sn, err := a.Store.GetSnippet(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	rev, err := a.Store.GetRevision(id, version)
	if err != nil {
		if err == sql.ErrNoRows {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := a.Store.SaveRevision(uuid.NewString(), id, sn.HTML, "before restore", now); err != nil {
		return err
	}
	restored := sn
	restored.HTML = rev.HTML
	restored.UpdatedAt = now
	if err := a.Store.UpdateSnippet(restored, sn.UpdatedAt); err != nil {
		return err
	}
	a.recordActivity(id, "revision_restored", c.Param("version"))
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/snippets/"+id+"/?msg=restored")
}

func (a *App) handleSnippetDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	id := c.Param("id")
	if err := a.Store.DeleteSnippet(id); err != nil {
		return err
	}
	a.sessions.Close(id)
	a.recordActivity(id, "snippet_deleted", "")
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/?msg=deleted")
}

