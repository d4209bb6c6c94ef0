package views

import (
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/snipmail"
)

// Composer renders the three-pane editing shell: snippet palette, visual
// canvas, and code view. All document state lives server-side; composer.js
// talks to /api/composer/:id and re-renders the panes from the returned
// state.
func Composer(sn snipmail.Snippet, library []snipmail.Snippet, styles []snipmail.TextStyle, csrfToken string) templ.Component {
	return layout("Compose: "+sn.Title+" – Snipmail", csrfToken, true, func(w io.Writer) {
		fmt.Fprintf(w, `<div class="composer" id="composer" data-snippet-id="%s">`, attr(sn.ID))

		// Toolbar
		fmt.Fprint(w, `<header class="composer-toolbar">`)
		fmt.Fprintf(w, `<input id="composer-title" value="%s" maxlength="200">`, attr(sn.Title))
		fmt.Fprint(w, `<button id="btn-undo" disabled>Undo</button>`)
		fmt.Fprint(w, `<button id="btn-redo" disabled>Redo</button>`)
		fmt.Fprint(w, `<span class="style-buttons">`)
		for _, ts := range styles {
			fmt.Fprintf(w, `<button class="style-btn" data-style-template="%s" style="color:%s">%s</button>`,
				attr(ts.HTMLTemplate), attr(ts.IconColor), esc(ts.Name))
		}
		fmt.Fprint(w, `</span>`)
		fmt.Fprint(w, `<button id="btn-toggle-mode">Edit mode</button>`)
		fmt.Fprint(w, `<button id="btn-save" class="primary">Save</button>`)
		fmt.Fprint(w, `<span id="save-status" class="save-status"></span>`)
		fmt.Fprint(w, `</header>`)

		// Palette: draggable library snippets
		fmt.Fprint(w, `<aside class="palette"><h2>Snippets</h2>`)
		for _, item := range library {
			if item.ID == sn.ID {
				continue
			}
			fmt.Fprintf(w, `<div class="palette-item" draggable="true" data-snippet-id="%s">%s</div>`,
				attr(item.ID), esc(item.Title))
		}
		fmt.Fprint(w, `</aside>`)

		// Visual canvas, populated by composer.js from the state endpoint
		fmt.Fprint(w, `<section class="canvas" id="canvas"></section>`)

		// Code view
		fmt.Fprint(w, `<section class="code-pane">`)
		fmt.Fprint(w, `<textarea id="code-view" spellcheck="false" wrap="off"></textarea>`)
		fmt.Fprint(w, `</section>`)

		fmt.Fprint(w, `</div>`)
	})
}
