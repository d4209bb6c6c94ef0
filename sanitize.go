package snipmail

import "github.com/microcosm-cc/bluemonday"

// NewSanitizerPolicy builds the bluemonday policy applied to component markup
// before it reaches the visual editing surface and the public share page.
// Email HTML leans on tables, inline styles, and presentational attributes,
// so the policy is wider than plain UGC but still strips scripts and event
// handlers. The data-* attributes carry the composer's component and field
// annotations and must survive sanitization.
func NewSanitizerPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th",
		"caption", "center", "font")
	p.AllowAttrs("style", "class", "id", "title",
		"width", "height", "align", "valign", "bgcolor", "color",
		"border", "cellpadding", "cellspacing", "colspan", "rowspan",
		"data-component-id", "data-component-type", "data-snippet-id",
		"data-editable").Globally()
	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowStandardURLs()
	p.AllowImages()
	p.RequireNoFollowOnLinks(false)

	return p
}
