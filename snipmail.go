// Package snipmail is a self-hosted library of reusable HTML snippets with a
// drag-and-drop email composer, built with Go, Echo, and templ.
//
// Users provide their own templ components via the ViewFuncs struct, and
// snipmail handles the handler logic, middleware, composer sessions, and
// database operations.
package snipmail

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"github.com/eringen/snipmail/activity"
	"github.com/eringen/snipmail/composer"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Login              func(showError bool, csrfToken string) templ.Component
	Dashboard          func(snippets []Snippet, categories []Category, tags []string, activeCategory string, activeTags []string, message string, csrfToken string) templ.Component
	SnippetListPartial func(snippets []Snippet, activeCategory string, activeTags []string, csrfToken string) templ.Component
	SnippetDetail      func(snippet Snippet, revisions []Revision, csrfToken string) templ.Component
	SnippetForm        func(snippet Snippet, categories []Category, isNew bool, csrfToken string) templ.Component
	PublicSnippet      func(snippet Snippet, safeHTML string, meta PageMeta, jsonLD string) templ.Component
	Composer           func(snippet Snippet, library []Snippet, styles []TextStyle, csrfToken string) templ.Component
	Settings           func(categories []Category, styles []TextStyle, message string, csrfToken string) templ.Component
	Images             func(images []Image, csrfToken string) templ.Component
	NotFound           func() templ.Component
	ServerError        func() templ.Component
}

// App is the central snipmail application. It wires together the store,
// cache, composer sessions, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *SnippetCache
	Views  ViewFuncs

	loginLimiter  *LoginLimiter
	sanitizer     *bluemonday.Policy
	sessions      *composer.Registry
	activityStore *activity.Store
	customRoutes  []func(*App)
	staticDir     string
	stopPrune     chan struct{}
}

// New creates a new snipmail App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, cache, composer session registry,
// middleware, routes, and starts the server.
func (a *App) Start() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("snipmail: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("snipmail: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("snipmail: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewSnippetCache(a.Store, a.Config.SnippetCacheTTL)

	a.loginLimiter = NewLoginLimiter(a.Config.LoginMaxAttempts, a.Config.LoginWindow)

	a.sanitizer = NewSanitizerPolicy()
	a.sessions = composer.NewRegistry(a.sanitizer.Sanitize)
	a.stopPrune = make(chan struct{})
	go a.pruneSessions()

	if a.Config.SeedOnFirstRun {
		if err := a.seedLibrary(); err != nil {
			return fmt.Errorf("snipmail: seed library: %w", err)
		}
	}

	if a.Config.ActivityEnabled {
		activityStore, err := activity.NewStore(a.Config.ActivityDatabasePath)
		if err != nil {
			return fmt.Errorf("snipmail: init activity log: %w", err)
		}
		a.activityStore = activityStore
		stopCleanup := activityStore.StartCleanupScheduler(90, 24*time.Hour)
		defer stopCleanup()
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// pruneSessions evicts composer sessions idle beyond ComposerIdleTTL.
// Unsaved model state lives only in the session, so the TTL is generous.
func (a *App) pruneSessions() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := a.sessions.Prune(a.Config.ComposerIdleTTL); n > 0 {
				a.Echo.Logger.Infof("pruned %d idle composer sessions", n)
			}
		case <-a.stopPrune:
			return
		}
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Serve embedded framework assets (composer.js, app.css).
	// These are served under /public/ and fall through to the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/composer.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/app.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	// User's static assets
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/p/:id/", a.handlePublicSnippet)
	e.GET("/login/", a.handleLoginPage)
	e.POST("/login/", a.handleLogin)
	e.POST("/logout/", handleLogout)

	// Library routes (admin-gated in handlers)
	e.GET("/", a.handleDashboard)
	e.GET("/snippets/new/", a.handleSnippetNew)
	e.GET("/snippets/:id/", a.handleSnippetDetail)
	e.GET("/snippets/:id/edit/", a.handleSnippetEdit)
	e.POST("/snippets/save/", a.handleSnippetSave)
	e.POST("/snippets/:id/restore/:version/", a.handleSnippetRestore)
	e.DELETE("/snippets/:id/", a.handleSnippetDelete)

	// Settings
	e.GET("/settings/", a.handleSettings)
	e.POST("/settings/categories/save/", a.handleCategorySave)
	e.DELETE("/settings/categories/:id/", a.handleCategoryDelete)
	e.POST("/settings/styles/save/", a.handleStyleSave)
	e.DELETE("/settings/styles/:id/", a.handleStyleDelete)

	// Image library
	e.GET("/images/", a.handleImageList)
	e.POST("/images/upload/", a.handleImageUpload)
	e.DELETE("/images/:filename/", a.handleImageDelete)

	// Composer page and its JSON API
	e.GET("/composer/:id/", a.handleComposerPage)
	api := e.Group("/api/composer/:id", a.requireAdminAPI)
	api.GET("/state", a.handleComposerState)
	api.POST("/components", a.handleComposerAdd)
	api.DELETE("/components/:cid", a.handleComposerDelete)
	api.POST("/reorder", a.handleComposerReorder)
	api.POST("/text", a.handleComposerText)
	api.POST("/html", a.handleComposerHTML)
	api.POST("/select", a.handleComposerSelect)
	api.POST("/undo", a.handleComposerUndo)
	api.POST("/redo", a.handleComposerRedo)
	api.POST("/save", a.handleComposerSave)
	api.POST("/close", a.handleComposerClose)

	// Activity log
	if a.Config.ActivityEnabled && a.activityStore != nil {
		activityHandler := activity.NewHandler(a.activityStore)
		authMiddleware := func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if !IsAdmin(c) {
					return c.Redirect(http.StatusSeeOther, "/")
				}
				return next(c)
			}
		}
		activityHandler.RegisterRoutes(e, authMiddleware)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopPrune != nil {
		close(a.stopPrune)
	}
	if a.sessions != nil {
		a.sessions.CloseAll()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.activityStore != nil {
		a.activityStore.Close()
	}
	return nil
}

// recordActivity logs an edit event when the activity log is enabled.
func (a *App) recordActivity(snippetID, action, detail string) {
	if a.activityStore == nil {
		return
	}
	if err := a.activityStore.SaveEvent(snippetID, action, detail); err != nil {
		a.Echo.Logger.Errorf("activity log: %v", err)
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
// This is a convenience function for use in scaffolded main.go files.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("snipmail: required environment variable %s is not set", key)
	}
	return v
}
