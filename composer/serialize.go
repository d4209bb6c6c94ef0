package composer

import (
	"strings"

	"golang.org/x/net/html"
)

// SerializeComponent renders a component back to embeddable HTML: boundary
// comments around a typed wrapper element around the component's markup with
// current field values substituted in. A subsequent parse of the output
// recovers the same id, type, and field values.
func SerializeComponent(c *ComponentNode) string {
	var b strings.Builder
	b.WriteString("<!-- component:")
	b.WriteString(c.ID)
	b.WriteString(" -->\n")
	b.WriteString(`<div data-component-id="`)
	b.WriteString(c.ID)
	b.WriteString(`" data-component-type="`)
	b.WriteString(string(c.Type))
	b.WriteString(`"`)
	if c.SourceSnippetID != "" {
		b.WriteString(` data-snippet-id="`)
		b.WriteString(c.SourceSnippetID)
		b.WriteString(`"`)
	}
	b.WriteString(">\n")
	b.WriteString(replaceFieldText(c.InnerHTML, c.Fields))
	b.WriteString("\n</div>\n<!-- /component:")
	b.WriteString(c.ID)
	b.WriteString(" -->")
	return b.String()
}

type patch struct {
	start, end int
	text       string
}

// replaceFieldText substitutes current field values into markup by patching
// only the text between each marked element's opening and closing tags.
// Everything outside those regions passes through byte-identical, so an edit
// to one field can never perturb attributes, styles, or sibling markup.
func replaceFieldText(markup string, fields map[string]*EditableField) string {
	if len(fields) == 0 {
		return markup
	}
	var patches []patch
	z := html.NewTokenizer(strings.NewReader(markup))
	pos := 0
	active := ""
	contentStart := 0
	depth := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()
		start := pos
		pos += len(raw)
		switch tt {
		case html.StartTagToken:
			name, attrs := tagMeta(z)
			if active == "" {
				if v := attrs["data-editable"]; v != "" && !voidElements[name] {
					if _, ok := fields[v]; ok {
						active = v
						contentStart = pos
						depth = 0
					}
				}
				continue
			}
			if !voidElements[name] {
				depth++
			}
		case html.EndTagToken:
			if active == "" {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			patches = append(patches, patch{
				start: contentStart,
				end:   start,
				text:  encodeFieldValue(fields[active].Text),
			})
			active = ""
		}
	}
	if len(patches) == 0 {
		return markup
	}
	var b strings.Builder
	last := 0
	for _, p := range patches {
		b.WriteString(markup[last:p.start])
		b.WriteString(p.text)
		last = p.end
	}
	b.WriteString(markup[last:])
	return b.String()
}

// encodeFieldValue converts a plain-text field value to markup: HTML escape,
// then newlines to <br>. The inverse of the extraction in extractFields.
func encodeFieldValue(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
