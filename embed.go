package snipmail

import "embed"

// EmbeddedAssets contains static assets shipped with snipmail:
// composer.js, app.css, seed.yaml
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
