package composer

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Insertion-point markers bracketing the editable component region of a
// template. Markup before the opening marker is the fixed header, markup
// after the closing marker the fixed footer.
const (
	markerStart = "<!--components-->"
	markerEnd   = "<!--/components-->"
)

var (
	reComponentStart = regexp.MustCompile(`<!--\s*component:([A-Za-z0-9_-]+)\s*-->`)
	reComponentEnd   = regexp.MustCompile(`<!--\s*/component:([A-Za-z0-9_-]+)\s*-->`)
)

// voidElements never take a closing tag and therefore never change nesting
// depth during token scans.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

type parseResult struct {
	header     string
	footer     string
	hasMarkers bool
	components []*ComponentNode
}

// parseDocument splits a full HTML string into header, component region, and
// footer, then parses the region into components. It is pure: no error path,
// malformed markup degrades to best-effort components.
func parseDocument(src string, newID func() string) parseResult {
	region := src
	var res parseResult
	if i := strings.Index(src, markerStart); i >= 0 {
		res.hasMarkers = true
		res.header = src[:i]
		rest := src[i+len(markerStart):]
		if j := strings.Index(rest, markerEnd); j >= 0 {
			region = rest[:j]
			res.footer = rest[j+len(markerEnd):]
		} else {
			region = rest
		}
	}
	res.components = parseRegion(region, newID)
	return res
}

// parseRegion scans for paired component boundary comments in order. Content
// between well-formed pairs keeps its declared id and type; gaps (including
// regions around unmatched boundary comments) fall through to unmarked
// handling, so nothing is ever dropped.
func parseRegion(region string, newID func() string) []*ComponentNode {
	var comps []*ComponentNode
	cursor := 0
	for _, loc := range reComponentStart.FindAllStringSubmatchIndex(region, -1) {
		if loc[0] < cursor {
			continue
		}
		id := region[loc[2]:loc[3]]
		bodyStart := loc[1]
		relStart, relEnd := indexEndComment(region[bodyStart:], id)
		if relStart < 0 {
			continue
		}
		if gap := region[cursor:loc[0]]; strings.TrimSpace(gap) != "" {
			comps = append(comps, parseUnmarked(gap, newID)...)
		}
		comps = append(comps, parseBounded(id, region[bodyStart:bodyStart+relStart]))
		cursor = bodyStart + relEnd
	}
	if gap := region[cursor:]; strings.TrimSpace(gap) != "" {
		comps = append(comps, parseUnmarked(gap, newID)...)
	}
	return comps
}

// indexEndComment finds the closing boundary comment for id within s,
// returning its start and end offsets, or -1 when absent.
func indexEndComment(s, id string) (int, int) {
	for _, loc := range reComponentEnd.FindAllStringSubmatchIndex(s, -1) {
		if s[loc[2]:loc[3]] == id {
			return loc[0], loc[1]
		}
	}
	return -1, -1
}

// parseBounded parses the content between one component's boundary comments.
// The expected shape is a single wrapper element carrying data-component-id
// and data-component-type; anything else is kept whole with type unknown.
func parseBounded(id, bounded string) *ComponentNode {
	trimmed := strings.TrimSpace(bounded)
	if attrs, inner, ok := splitWrapper(trimmed); ok {
		return &ComponentNode{
			ID:              id,
			Type:            componentTypeFrom(attrs["data-component-type"]),
			SourceSnippetID: attrs["data-snippet-id"],
			InnerHTML:       inner,
			Fields:          extractFields(inner),
		}
	}
	return &ComponentNode{
		ID:        id,
		Type:      TypeUnknown,
		InnerHTML: trimmed,
		Fields:    extractFields(trimmed),
	}
}

// splitWrapper recognizes markup of the form
// <tag data-component-id="...">inner</tag> with nothing else at top level,
// returning the wrapper's attributes and its trimmed inner markup.
func splitWrapper(s string) (map[string]string, string, bool) {
	z := html.NewTokenizer(strings.NewReader(s))
	pos := 0
	depth := 0
	innerStart := -1
	innerEnd := -1
	var attrs map[string]string
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()
		start := pos
		pos += len(raw)
		switch tt {
		case html.TextToken:
			if innerStart < 0 && strings.TrimSpace(string(raw)) != "" {
				return nil, "", false
			}
			if innerEnd >= 0 && strings.TrimSpace(string(raw)) != "" {
				return nil, "", false
			}
		case html.CommentToken, html.DoctypeToken:
			if innerStart < 0 || innerEnd >= 0 {
				return nil, "", false
			}
		case html.StartTagToken:
			name, tagAttrs := tagMeta(z)
			if innerStart < 0 {
				if tagAttrs["data-component-id"] == "" {
					return nil, "", false
				}
				attrs = tagAttrs
				innerStart = pos
				if !voidElements[name] {
					depth = 1
				} else {
					innerEnd = start
				}
				continue
			}
			if innerEnd >= 0 {
				return nil, "", false
			}
			if !voidElements[name] {
				depth++
			}
		case html.SelfClosingTagToken:
			if innerStart < 0 {
				_, tagAttrs := tagMeta(z)
				if tagAttrs["data-component-id"] == "" {
					return nil, "", false
				}
				attrs = tagAttrs
				innerStart = pos
				innerEnd = start
				continue
			}
			if innerEnd >= 0 {
				return nil, "", false
			}
		case html.EndTagToken:
			if innerStart < 0 || innerEnd >= 0 {
				return nil, "", false
			}
			depth--
			if depth == 0 {
				innerEnd = start
			}
		}
	}
	if innerStart < 0 || innerEnd < 0 {
		return nil, "", false
	}
	if innerEnd < innerStart {
		return attrs, "", true
	}
	return attrs, strings.TrimSpace(s[innerStart:innerEnd]), true
}

// parseUnmarked handles a region with no boundary comments. Clean top-level
// sibling elements each become their own section component, auto annotated.
// Anything else (stray top-level text, comments, unbalanced markup) keeps
// the whole region as a single template component.
func parseUnmarked(region string, newID func() string) []*ComponentNode {
	if strings.TrimSpace(region) == "" {
		return nil
	}
	if chunks, ok := splitTopLevel(region); ok && len(chunks) > 0 {
		comps := make([]*ComponentNode, 0, len(chunks))
		for _, chunk := range chunks {
			id := newID()
			inner := Annotate(id, chunk)
			comps = append(comps, &ComponentNode{
				ID:        id,
				Type:      TypeSection,
				InnerHTML: inner,
				Fields:    extractFields(inner),
			})
		}
		return comps
	}
	id := newID()
	inner := Annotate(id, strings.TrimSpace(region))
	return []*ComponentNode{{
		ID:        id,
		Type:      TypeTemplate,
		InnerHTML: inner,
		Fields:    extractFields(inner),
	}}
}

// splitTopLevel slices s into its top-level elements. It reports false when
// the region has non-whitespace text or comments between siblings, or when
// tags do not balance, in which case the caller keeps the region whole.
func splitTopLevel(s string) ([]string, bool) {
	z := html.NewTokenizer(strings.NewReader(s))
	pos := 0
	depth := 0
	chunkStart := -1
	var chunks []string
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()
		start := pos
		pos += len(raw)
		switch tt {
		case html.TextToken:
			if depth == 0 && strings.TrimSpace(string(raw)) != "" {
				return nil, false
			}
		case html.CommentToken, html.DoctypeToken:
			if depth == 0 {
				return nil, false
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if depth == 0 {
				chunkStart = start
			}
			if voidElements[string(name)] {
				if depth == 0 {
					chunks = append(chunks, s[start:pos])
					chunkStart = -1
				}
				continue
			}
			depth++
		case html.SelfClosingTagToken:
			if depth == 0 {
				chunks = append(chunks, s[start:pos])
				chunkStart = -1
			}
		case html.EndTagToken:
			if depth == 0 {
				return nil, false
			}
			depth--
			if depth == 0 {
				chunks = append(chunks, s[chunkStart:pos])
				chunkStart = -1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	return chunks, true
}

// extractFields collects the data-editable regions of markup into plain-text
// field values. <br> becomes a newline; all other whitespace, including
// source-formatting newlines, collapses to single spaces per line.
//
// Editable regions do not nest. A data-editable element inside an active
// region is treated as plain markup: its text joins the outer field and its
// own name is dropped, and serialization flattens it to text. Hand-written
// markup is the only way to produce that shape.
func extractFields(markup string) map[string]*EditableField {
	fields := make(map[string]*EditableField)
	z := html.NewTokenizer(strings.NewReader(markup))
	active := ""
	depth := 0
	var text strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken:
			name, attrs := tagMeta(z)
			if active == "" {
				if v := attrs["data-editable"]; v != "" {
					if voidElements[name] {
						fields[v] = &EditableField{Name: v}
						continue
					}
					active = v
					depth = 0
					text.Reset()
				}
				continue
			}
			if name == "br" {
				text.WriteString("\n")
			}
			if !voidElements[name] {
				depth++
			}
		case html.SelfClosingTagToken:
			if active != "" {
				if name, _ := tagMeta(z); name == "br" {
					text.WriteString("\n")
				}
			}
		case html.TextToken:
			if active != "" {
				text.WriteString(flattenSpace(string(z.Text())))
			}
		case html.EndTagToken:
			if active == "" {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			fields[active] = &EditableField{Name: active, Text: normalizeFieldText(text.String())}
			active = ""
		}
	}
	return fields
}

var spaceFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

func flattenSpace(s string) string {
	return spaceFlattener.Replace(s)
}

// normalizeFieldText collapses whitespace runs within each line and trims
// line edges, preserving the newlines that came from <br> elements.
func normalizeFieldText(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.Join(strings.Fields(ln), " ")
	}
	return strings.Join(lines, "\n")
}

// tagMeta reads the current tag token's name and attributes.
func tagMeta(z *html.Tokenizer) (string, map[string]string) {
	name, hasAttr := z.TagName()
	attrs := make(map[string]string)
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = z.TagAttr()
		attrs[string(k)] = string(v)
	}
	return string(name), attrs
}
