package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/snipmail"
)

// Login renders the password prompt shown to unauthenticated visitors.
func Login(showError bool, csrfToken string) templ.Component {
	return layout("Log in – Snipmail", csrfToken, false, func(w io.Writer) {
		if showError {
			fmt.Fprint(w, `<p class="flash flash-error">Wrong password.</p>`)
		}
		fmt.Fprintf(w, `<form method="post" action="/login/" class="login-form">`+
			`<input type="hidden" name="_csrf" value="%s">`+
			`<label for="password">Password</label>`+
			`<input type="password" id="password" name="password" autofocus>`+
			`<button type="submit">Log in</button>`+
			`</form>`, attr(csrfToken))
	})
}

// Dashboard renders the snippet library with category and tag filters.
func Dashboard(snippets []snipmail.Snippet, categories []snipmail.Category, tags []string, activeCategory string, activeTags []string, message, csrfToken string) templ.Component {
	return layout("Library – Snipmail", csrfToken, true, func(w io.Writer) {
		flash(w, message)
		fmt.Fprint(w, `<div class="library"><aside class="filters">`)

		fmt.Fprint(w, `<h2>Categories</h2><ul>`)
		fmt.Fprintf(w, `<li><a href="/"%s>All</a></li>`, selectedAttr(activeCategory == ""))
		for _, c := range categories {
			fmt.Fprintf(w, `<li><a href="/?category=%s"%s>%s</a></li>`,
				PathEscape(c.ID), selectedAttr(c.ID == activeCategory), esc(c.Name))
		}
		fmt.Fprint(w, `</ul>`)

		fmt.Fprint(w, `<h2>Tags</h2><div class="tags">`)
		for _, t := range tags {
			active := containsTag(activeTags, t)
			fmt.Fprintf(w, `<a class="%s" href="/?tags=%s">%s</a> `,
				TagClass(active), PathEscape(toggleTag(activeTags, t)), esc(t))
		}
		fmt.Fprint(w, `</div></aside>`)

		fmt.Fprint(w, `<section class="snippet-list" id="snippet-list">`)
		writeSnippetList(w, snippets, csrfToken)
		fmt.Fprint(w, `</section></div>`)
	})
}

// SnippetListPartial renders just the snippet cards, for filter requests
// that swap the list in place.
func SnippetListPartial(snippets []snipmail.Snippet, activeCategory string, activeTags []string, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeSnippetList(w, snippets, csrfToken)
		return nil
	})
}

func writeSnippetList(w io.Writer, snippets []snipmail.Snippet, csrfToken string) {
	if len(snippets) == 0 {
		fmt.Fprint(w, `<p class="empty">No snippets match. <a href="/snippets/new/">Create one</a>.</p>`)
		return
	}
	for _, sn := range snippets {
		fmt.Fprintf(w, `<article class="snippet-card" draggable="true" data-snippet-id="%s">`, attr(sn.ID))
		fmt.Fprintf(w, `<h3><a href="/snippets/%s/">%s</a></h3>`, PathEscape(sn.ID), esc(sn.Title))
		if sn.Category != "" {
			fmt.Fprintf(w, `<span class="category">%s</span>`, esc(sn.Category))
		}
		for _, t := range sn.Tags {
			fmt.Fprintf(w, `<span class="%s">%s</span>`, TagClass(false), esc(t))
		}
		fmt.Fprintf(w, `<div class="actions">`+
			`<a href="/composer/%s/">Compose</a> `+
			`<a href="/snippets/%s/edit/">Edit</a>`+
			`</div>`, PathEscape(sn.ID), PathEscape(sn.ID))
		fmt.Fprint(w, `</article>`)
	}
}

// SnippetDetail renders one snippet with a preview and its revision history.
func SnippetDetail(sn snipmail.Snippet, revisions []snipmail.Revision, csrfToken string) templ.Component {
	return layout(sn.Title+" – Snipmail", csrfToken, true, func(w io.Writer) {
		fmt.Fprintf(w, `<h1>%s</h1>`, esc(sn.Title))
		if sn.Description != "" {
			fmt.Fprint(w, `<div class="description">`)
			_ = Markdown(sn.Description).Render(context.Background(), w)
			fmt.Fprint(w, `</div>`)
		}
		fmt.Fprintf(w, `<p class="meta">Updated %s`, esc(FormatTime(sn.UpdatedAt)))
		if sn.IsPublic {
			fmt.Fprintf(w, ` · <a href="/p/%s/">Public link</a>`, PathEscape(sn.ID))
		}
		fmt.Fprint(w, `</p>`)

		fmt.Fprintf(w, `<div class="actions">`+
			`<a class="button" href="/composer/%s/">Open in composer</a> `+
			`<a class="button" href="/snippets/%s/edit/">Edit</a> `+
			`<form method="post" action="/snippets/%s/" class="inline" data-method="delete">`+
			`<input type="hidden" name="_csrf" value="%s"><button type="submit" class="danger">Delete</button></form>`+
			`</div>`, PathEscape(sn.ID), PathEscape(sn.ID), PathEscape(sn.ID), attr(csrfToken))

		// The preview iframe isolates snippet styles from the app shell.
		fmt.Fprintf(w, `<iframe class="preview" sandbox srcdoc="%s"></iframe>`, attr(sn.HTML))

		if len(revisions) > 0 {
			fmt.Fprint(w, `<h2>Revisions</h2><table class="revisions"><thead><tr><th>Version</th><th>Saved</th><th>Note</th><th></th></tr></thead><tbody>`)
			for _, r := range revisions {
				fmt.Fprintf(w, `<tr><td>%d</td><td>%s</td><td>%s</td>`, r.Version, esc(FormatTime(r.CreatedAt)), esc(r.Note))
				fmt.Fprintf(w, `<td><form method="post" action="/snippets/%s/restore/%d/">`+
					`<input type="hidden" name="_csrf" value="%s">`+
					`<button type="submit">Restore</button></form></td></tr>`,
					PathEscape(sn.ID), r.Version, attr(csrfToken))
			}
			fmt.Fprint(w, `</tbody></table>`)
		}
	})
}

// SnippetForm renders the create/edit form for snippet metadata and raw HTML.
func SnippetForm(sn snipmail.Snippet, categories []snipmail.Category, isNew bool, csrfToken string) templ.Component {
	title := "Edit snippet"
	if isNew {
		title = "New snippet"
	}
	return layout(title+" – Snipmail", csrfToken, true, func(w io.Writer) {
		fmt.Fprintf(w, `<h1>%s</h1>`, esc(title))
		fmt.Fprint(w, `<form method="post" action="/snippets/save/" class="snippet-form">`)
		fmt.Fprintf(w, `<input type="hidden" name="_csrf" value="%s">`, attr(csrfToken))
		fmt.Fprintf(w, `<input type="hidden" name="id" value="%s">`, attr(sn.ID))
		fmt.Fprintf(w, `<input type="hidden" name="expected_updated_at" value="%s">`, attr(sn.UpdatedAt))

		fmt.Fprintf(w, `<label for="title">Title</label><input id="title" name="title" value="%s" maxlength="200">`, attr(sn.Title))
		fmt.Fprintf(w, `<label for="description">Description</label><textarea id="description" name="description" rows="3" maxlength="1000">%s</textarea>`, esc(sn.Description))

		fmt.Fprint(w, `<label for="category">Category</label><select id="category" name="category"><option value="">None</option>`)
		for _, c := range categories {
			sel := ""
			if c.ID == sn.Category {
				sel = ` selected`
			}
			fmt.Fprintf(w, `<option value="%s"%s>%s</option>`, attr(c.ID), sel, esc(c.Name))
		}
		fmt.Fprint(w, `</select>`)

		fmt.Fprintf(w, `<label for="tags">Tags</label><input id="tags" name="tags" value="%s" placeholder="promo, header">`, attr(JoinTags(sn.Tags)))
		fmt.Fprintf(w, `<label for="html">HTML</label><textarea id="html" name="html" rows="16" spellcheck="false">%s</textarea>`, esc(sn.HTML))

		checked := ""
		if sn.IsPublic {
			checked = ` checked`
		}
		fmt.Fprintf(w, `<label class="checkbox"><input type="checkbox" name="is_public" value="1"%s> Share publicly</label>`, checked)

		fmt.Fprint(w, `<button type="submit">Save</button></form>`)
	})
}

func selectedAttr(on bool) string {
	if on {
		return ` class="active"`
	}
	return ""
}

func containsTag(tags []string, t string) bool {
	for _, v := range tags {
		if v == t {
			return true
		}
	}
	return false
}

// toggleTag returns the tags query value with t added, or removed when
// already active, so each pill toggles its tag in the filter.
func toggleTag(active []string, t string) string {
	var out []string
	found := false
	for _, v := range active {
		if v == t {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, t)
	}
	result := ""
	for i, v := range out {
		if i > 0 {
			result += ","
		}
		result += v
	}
	return result
}
