package snipmail

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleDashboard(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.Login(false, CsrfToken(c)))
	}
	category := c.QueryParam("category")
	tags := SplitTags(c.QueryParam("tags"))
	snippets, err := a.Cache.ListSnippets(category, tags)
	if err != nil {
		return err
	}
	if c.Request().Header.Get("HX-Request") == "true" && c.QueryParam("partial") == "list" {
		return Render(c, a.Views.SnippetListPartial(snippets, category, tags, CsrfToken(c)))
	}
	allTags, err := a.Cache.ListTags()
	if err != nil {
		return err
	}
	categories, err := a.Cache.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Dashboard(snippets, categories, allTags, category, tags, c.QueryParam("msg"), CsrfToken(c)))
}

// handlePublicSnippet serves a shared snippet at /p/:id. The markup is run
// through the sanitizer before rendering since snippets contain arbitrary
// author HTML.
func (a *App) handlePublicSnippet(c echo.Context) error {
	sn, err := a.Store.GetPublicSnippet(c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	safe := a.sanitizer.Sanitize(sn.HTML)
	meta := PageMeta{
		Title:       sn.Title,
		Description: sn.Description,
		URL:         BuildURL(a.Config.URL, "p", sn.ID),
		OGType:      "article",
	}
	return Render(c, a.Views.PublicSnippet(sn, safe, meta, WebsiteJsonLD(a.Config)))
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
