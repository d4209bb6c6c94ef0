package snipmail

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (a *App) handleSettings(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return a.renderSettings(c, c.QueryParam("msg"))
}

func (a *App) renderSettings(c echo.Context, msg string) error {
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	styles, err := a.Store.ListTextStyles()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Settings(categories, styles, msg, CsrfToken(c)))
}

func (a *App) handleCategorySave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return c.Redirect(http.StatusSeeOther, "/settings/?msg="+PathEscape("Category name is required."))
	}
	id := strings.TrimSpace(c.FormValue("id"))
	if id == "" {
		id = Slugify(name)
	}
	if err := a.Store.SaveCategory(Category{ID: id, Name: name}); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/settings/?msg=saved")
}

func (a *App) handleCategoryDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err := a.Store.DeleteCategory(c.Param("id")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/settings/?msg=deleted")
}

func (a *App) handleStyleSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	tmpl := strings.TrimSpace(c.FormValue("html_template"))
	if name == "" {
		return c.Redirect(http.StatusSeeOther, "/settings/?msg="+PathEscape("Style name is required."))
	}
	// The template must contain the {text} placeholder exactly once so the
	// composer knows where to put the wrapped selection.
	if strings.Count(tmpl, "{text}") != 1 {
		return c.Redirect(http.StatusSeeOther, "/settings/?msg="+PathEscape("Style template must contain {text} exactly once."))
	}
	id := strings.TrimSpace(c.FormValue("id"))
	if id == "" {
		id = uuid.NewString()
	}
	sortOrder, _ := strconv.Atoi(c.FormValue("sort_order"))
	if err := a.Store.SaveTextStyle(TextStyle{
		ID:           id,
		Name:         name,
		HTMLTemplate: tmpl,
		IconColor:    strings.TrimSpace(c.FormValue("icon_color")),
		SortOrder:    sortOrder,
	}); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/settings/?msg=saved")
}

func (a *App) handleStyleDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err := a.Store.DeleteTextStyle(c.Param("id")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/settings/?msg=deleted")
}
