package views

import (
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/snipmail"
)

// Settings renders category and text style management.
func Settings(categories []snipmail.Category, styles []snipmail.TextStyle, message, csrfToken string) templ.Component {
	return layout("Settings – Snipmail", csrfToken, true, func(w io.Writer) {
		flash(w, message)
		fmt.Fprint(w, `<h1>Settings</h1>`)

		fmt.Fprint(w, `<section><h2>Categories</h2><ul class="settings-list">`)
		for _, c := range categories {
			fmt.Fprintf(w, `<li>%s <form method="post" action="/settings/categories/%s/" class="inline" data-method="delete">`+
				`<input type="hidden" name="_csrf" value="%s"><button type="submit">Delete</button></form></li>`,
				esc(c.Name), PathEscape(c.ID), attr(csrfToken))
		}
		fmt.Fprint(w, `</ul>`)
		fmt.Fprintf(w, `<form method="post" action="/settings/categories/save/">`+
			`<input type="hidden" name="_csrf" value="%s">`+
			`<input name="name" placeholder="New category">`+
			`<button type="submit">Add</button></form></section>`, attr(csrfToken))

		fmt.Fprint(w, `<section><h2>Text styles</h2>`)
		fmt.Fprint(w, `<p class="hint">Templates wrap the selected text where the <code>{text}</code> placeholder sits.</p>`)
		fmt.Fprint(w, `<table class="settings-table"><thead><tr><th>Name</th><th>Template</th><th>Order</th><th></th></tr></thead><tbody>`)
		for _, ts := range styles {
			fmt.Fprintf(w, `<tr><td style="color:%s">%s</td><td><code>%s</code></td><td>%d</td>`,
				attr(ts.IconColor), esc(ts.Name), esc(ts.HTMLTemplate), ts.SortOrder)
			fmt.Fprintf(w, `<td><form method="post" action="/settings/styles/%s/" class="inline" data-method="delete">`+
				`<input type="hidden" name="_csrf" value="%s"><button type="submit">Delete</button></form></td></tr>`,
				PathEscape(ts.ID), attr(csrfToken))
		}
		fmt.Fprint(w, `</tbody></table>`)
		fmt.Fprintf(w, `<form method="post" action="/settings/styles/save/" class="style-form">`+
			`<input type="hidden" name="_csrf" value="%s">`+
			`<input name="name" placeholder="Name">`+
			`<input name="html_template" placeholder="<strong>{text}</strong>">`+
			`<input name="icon_color" placeholder="#c00">`+
			`<input name="sort_order" type="number" value="0">`+
			`<button type="submit">Add</button></form></section>`, attr(csrfToken))
	})
}

// Images renders the upload form and the image library grid.
func Images(images []snipmail.Image, csrfToken string) templ.Component {
	return layout("Images – Snipmail", csrfToken, true, func(w io.Writer) {
		fmt.Fprint(w, `<h1>Images</h1>`)
		fmt.Fprintf(w, `<form method="post" action="/images/upload/" enctype="multipart/form-data">`+
			`<input type="hidden" name="_csrf" value="%s">`+
			`<input type="file" name="image" accept="image/*">`+
			`<button type="submit">Upload</button></form>`, attr(csrfToken))

		fmt.Fprint(w, `<div class="image-grid">`)
		for _, img := range images {
			fmt.Fprintf(w, `<figure><img src="/public/uploads/%s" alt="%s" loading="lazy">`,
				PathEscape(img.Filename), attr(img.OriginalName))
			fmt.Fprintf(w, `<figcaption>%s · %dx%d · %s</figcaption>`,
				esc(img.Filename), img.Width, img.Height, esc(FormatSize(img.Size)))
			fmt.Fprintf(w, `<form method="post" action="/images/%s/" class="inline" data-method="delete">`+
				`<input type="hidden" name="_csrf" value="%s"><button type="submit">Delete</button></form>`,
				PathEscape(img.Filename), attr(csrfToken))
			fmt.Fprint(w, `</figure>`)
		}
		fmt.Fprint(w, `</div>`)
	})
}
