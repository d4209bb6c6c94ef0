package snipmail

import "time"

// SiteConfig holds all configuration for a snipmail installation.
type SiteConfig struct {
	Name        string // Site name (default "Snipmail")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/snipmail.db")

	ActivityEnabled      bool   // Enable the edit-activity log (default off)
	ActivityDatabasePath string // Activity SQLite path (default "data/activity.db")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	LoginMaxAttempts int           // Failed logins allowed per IP per window (default 5)
	LoginWindow      time.Duration // Login rate-limit window (default 1min)

	SnippetCacheTTL time.Duration // Snippet cache TTL (default 5min)
	ComposerIdleTTL time.Duration // Idle composer sessions are pruned after this (default 2h)
	SeedOnFirstRun  bool          // Import starter snippets into an empty library
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Snipmail"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/snipmail.db"
	}
	if c.ActivityDatabasePath == "" {
		c.ActivityDatabasePath = "data/activity.db"
	}
	if c.LoginMaxAttempts == 0 {
		c.LoginMaxAttempts = 5
	}
	if c.LoginWindow == 0 {
		c.LoginWindow = time.Minute
	}
	if c.SnippetCacheTTL == 0 {
		c.SnippetCacheTTL = 5 * time.Minute
	}
	if c.ComposerIdleTTL == 0 {
		c.ComposerIdleTTL = 2 * time.Hour
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
