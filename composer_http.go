package snipmail

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eringen/snipmail/composer"
)

// composerState is the JSON projection of a composer session returned by
// every API call. The client re-renders from it instead of tracking diffs.
type composerState struct {
	TemplateID string              `json:"template_id"`
	Title      string              `json:"title"`
	Category   string              `json:"category"`
	Tags       []string            `json:"tags"`
	Dirty      bool                `json:"dirty"`
	CanUndo    bool                `json:"can_undo"`
	CanRedo    bool                `json:"can_redo"`
	UpdateSeq  uint64              `json:"update_seq"`
	Selected   string              `json:"selected"`
	HTML       string              `json:"html"`
	CursorLine int                 `json:"cursor_line"`
	CursorCol  int                 `json:"cursor_col"`
	ScrollTop  int                 `json:"scroll_top"`
	Components []composerComponent `json:"components"`
}

type composerComponent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Selected bool   `json:"selected"`
	Editing  bool   `json:"editing"`
	HTML     string `json:"html"`
}

// handleComposerPage opens (or re-attaches to) the editing session for a
// snippet and renders the composer shell.
func (a *App) handleComposerPage(c echo.Context) error {
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
	a.openSession(sn)
	library, err := a.Cache.ListSnippets("", nil)
	if err != nil {
		return err
	}
	styles, err := a.Store.ListTextStyles()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Composer(sn, library, styles, CsrfToken(c)))
}

func (a *App) openSession(sn Snippet) *composer.Session {
	return a.sessions.Open(composer.Template{
		ID:       sn.ID,
		Title:    sn.Title,
		Category: sn.Category,
		Tags:     sn.Tags,
		HTML:     sn.HTML,
	})
}

// session returns the composer session for the route's snippet id, loading
// the snippet from the store when no session is open yet (e.g. after a
// server restart with the composer page still open in a browser).
func (a *App) session(c echo.Context) (*composer.Session, error) {
	id := c.Param("id")
	if s := a.sessions.Get(id); s != nil {
		return s, nil
	}
	sn, err := a.Store.GetSnippet(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, echo.NewHTTPError(http.StatusNotFound, "unknown snippet")
		}
		return nil, err
	}
	return a.openSession(sn), nil
}

func stateOf(s *composer.Session) composerState {
	m := s.Model
	line, col := s.Buffer.Cursor()
	st := composerState{
		TemplateID: m.TemplateID(),
		Title:      m.Title(),
		Category:   m.Category(),
		Tags:       m.Tags(),
		Dirty:      m.IsDirty(),
		CanUndo:    m.CanUndo(),
		CanRedo:    m.CanRedo(),
		UpdateSeq:  m.UpdateSeq(),
		Selected:   m.SelectedComponentID(),
		HTML:       s.Buffer.Content(),
		CursorLine: line,
		CursorCol:  col,
		ScrollTop:  s.Buffer.ScrollTop(),
	}
	for _, rc := range s.Visual.Render() {
		st.Components = append(st.Components, composerComponent{
			ID:       rc.ID,
			Type:     string(rc.Type),
			Selected: rc.Selected,
			Editing:  rc.Editing,
			HTML:     rc.HTML,
		})
	}
	return st
}

// respondState runs mutate inside the session lock, refreshes the code
// buffer, and answers with the resulting state. Invalid operations are
// no-ops inside the model, so the client still gets a coherent state.
func (a *App) respondState(c echo.Context, mutate func(*composer.Session)) error {
	s, err := a.session(c)
	if err != nil {
		return err
	}
	var st composerState
	s.Do(func(s *composer.Session) {
		if mutate != nil {
			mutate(s)
		}
		s.Code.ModelChanged()
		st = stateOf(s)
	})
	return c.JSON(http.StatusOK, st)
}

func (a *App) handleComposerState(c echo.Context) error {
	return a.respondState(c, nil)
}

func (a *App) handleComposerAdd(c echo.Context) error {
	var req struct {
		SnippetID string `json:"snippet_id"`
		HTML      string `json:"html"`
		Index     *int   `json:"index"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	html := req.HTML
	if html == "" && req.SnippetID != "" {
		sn, err := a.Store.GetSnippet(req.SnippetID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		html = sn.HTML
	}
	if html == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to add")
	}
	return a.respondState(c, func(s *composer.Session) {
		if req.Index != nil {
			s.Visual.CommitEdit()
			s.Model.AddComponent(composer.SourceVisualView, html, req.SnippetID, *req.Index)
		} else {
			s.Visual.DropSnippet(html, req.SnippetID)
		}
	})
}

func (a *App) handleComposerDelete(c echo.Context) error {
	cid := c.Param("cid")
	return a.respondState(c, func(s *composer.Session) {
		s.Visual.Delete(cid)
	})
}

func (a *App) handleComposerReorder(c echo.Context) error {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return a.respondState(c, func(s *composer.Session) {
		s.Visual.Reorder(req.From, req.To)
	})
}

func (a *App) handleComposerText(c echo.Context) error {
	var req struct {
		ComponentID string `json:"component_id"`
		Field       string `json:"field"`
		Text        string `json:"text"`
		Commit      bool   `json:"commit"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return a.respondState(c, func(s *composer.Session) {
		ef := s.Model.CurrentEditingField()
		if ef == nil || ef.ComponentID != req.ComponentID || ef.FieldName != req.Field {
			s.Visual.BeginEdit(req.ComponentID, req.Field)
		}
		s.Visual.TextInput(req.Text)
		if req.Commit {
			s.Visual.CommitEdit()
		}
	})
}

// handleComposerHTML applies a code view edit. The client debounces
// keystrokes; the server applies the content immediately and echoes back
// cursor and scroll so the textarea can be restored after a rewrite.
func (a *App) handleComposerHTML(c echo.Context) error {
	var req struct {
		HTML       string `json:"html"`
		CursorLine int    `json:"cursor_line"`
		CursorCol  int    `json:"cursor_col"`
		ScrollTop  int    `json:"scroll_top"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return a.respondState(c, func(s *composer.Session) {
		s.Buffer.SetContent(req.HTML)
		s.Buffer.SetCursor(req.CursorLine, req.CursorCol)
		s.Buffer.SetScrollTop(req.ScrollTop)
		s.Code.Flush()
	})
}

func (a *App) handleComposerSelect(c echo.Context) error {
	var req struct {
		ComponentID string `json:"component_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return a.respondState(c, func(s *composer.Session) {
		s.Visual.Select(req.ComponentID)
	})
}

func (a *App) handleComposerUndo(c echo.Context) error {
	return a.respondState(c, func(s *composer.Session) {
		s.Visual.CommitEdit()
		s.Model.Undo()
	})
}

func (a *App) handleComposerRedo(c echo.Context) error {
	return a.respondState(c, func(s *composer.Session) {
		s.Visual.CommitEdit()
		s.Model.Redo()
	})
}

// handleComposerSave serializes the session's document and writes it back to
// the snippet, with optimistic locking against saves from other surfaces.
func (a *App) handleComposerSave(c echo.Context) error {
	var req struct {
		Title    string   `json:"title"`
		Category string   `json:"category"`
		Tags     []string `json:"tags"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	s, err := a.session(c)
	if err != nil {
		return err
	}

	var saveErr error
	var st composerState
	s.Do(func(s *composer.Session) {
		s.Visual.CommitEdit()
		if req.Title != "" {
			s.Model.SetTitle(req.Title)
		}
		if req.Category != "" {
			s.Model.SetCategory(req.Category)
		}
		if req.Tags != nil {
			s.Model.SetTags(req.Tags)
		}

		id := s.Model.TemplateID()
		prev, err := a.Store.GetSnippet(id)
		if err != nil {
			saveErr = err
			return
		}
		now := time.Now().UTC().Format(time.RFC3339)
		sn := prev
		sn.Title = s.Model.Title()
		sn.Category = s.Model.Category()
		sn.Tags = s.Model.Tags()
		sn.HTML = s.Model.GetHTML()
		sn.UpdatedAt = now
		if err := a.Store.UpdateSnippet(sn, prev.UpdatedAt); err != nil {
			saveErr = err
			return
		}
		if prev.HTML != sn.HTML {
			if _, err := a.Store.SaveRevision(uuid.NewString(), id, prev.HTML, "composer save", now); err != nil {
				saveErr = err
				return
			}
		}
		s.Model.MarkSaved()
		s.Code.ModelChanged()
		st = stateOf(s)
	})
	if saveErr != nil {
		if saveErr == ErrConflict {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "snippet was saved elsewhere; reload the composer to pick up the latest version",
			})
		}
		if saveErr == sql.ErrNoRows {
			return echo.NewHTTPError(http.StatusNotFound, "unknown snippet")
		}
		return saveErr
	}
	a.recordActivity(c.Param("id"), "composer_saved", "")
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, st)
}

// handleComposerClose discards the editing session and its history.
func (a *App) handleComposerClose(c echo.Context) error {
	a.sessions.Close(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
