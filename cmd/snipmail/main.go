package main

import (
	"log"
	"time"

	"github.com/eringen/snipmail"
	"github.com/eringen/snipmail/views"
)

func main() {
	cfg := snipmail.SiteConfig{
		Name:        snipmail.EnvOr("SITE_NAME", "Snipmail"),
		URL:         snipmail.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: snipmail.EnvOr("SITE_DESCRIPTION", "Reusable HTML snippets and an email composer"),
		Author:      snipmail.EnvOr("SITE_AUTHOR", ""),

		Addr:         snipmail.EnvOr("ADDR", ":3000"),
		DatabasePath: snipmail.EnvOr("DATABASE_PATH", "data/snipmail.db"),

		AdminPassword: snipmail.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: snipmail.MustEnv("SESSION_SECRET"),
		CookieSecure:  snipmail.EnvOr("COOKIE_SECURE", "") != "",

		ActivityEnabled:      snipmail.EnvOr("ACTIVITY_ENABLED", "") != "",
		ActivityDatabasePath: snipmail.EnvOr("ACTIVITY_DATABASE_PATH", "data/activity.db"),

		SnippetCacheTTL: 5 * time.Minute,
		SeedOnFirstRun:  snipmail.EnvOr("SEED_ON_FIRST_RUN", "1") != "",
	}

	app := snipmail.New(cfg, views.Funcs())
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
