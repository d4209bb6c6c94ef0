package composer

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// annotatable is the allow-list of text-bearing leaf tags the annotator may
// mark as editable. Generic containers (div, section, table) are excluded so
// structural markup never becomes a field.
var annotatable = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "span": true, "td": true, "th": true, "li": true, "label": true,
}

// Annotate marks likely-editable leaf elements of a freshly inserted
// fragment with data-editable attributes so the user can edit them without
// the snippet author having pre-annotated anything. An element qualifies
// when its tag is in the allow-list, it carries no existing marker, it has
// no child elements, and it contains non-whitespace text. The marker is
// injected into the opening tag by a minimal textual patch; attribute order,
// whitespace, and everything else in the fragment stay byte-identical.
// Running Annotate twice yields the same output as running it once.
func Annotate(componentID, markup string) string {
	existing := existingFieldNames(markup)
	prefix := componentID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	type frame struct {
		tag        string
		candidate  bool
		insertAt   int
		childElems int
		hasText    bool
	}

	var stack []frame
	var patches []patch
	counter := 0
	nextName := func() string {
		for {
			counter++
			name := fmt.Sprintf("%s-%d", prefix, counter)
			if !existing[name] {
				existing[name] = true
				return name
			}
		}
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	pos := 0
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
			if len(stack) > 0 {
				stack[len(stack)-1].childElems++
			}
			if voidElements[name] {
				continue
			}
			stack = append(stack, frame{
				tag:       name,
				candidate: annotatable[name] && attrs["data-editable"] == "",
				insertAt:  start + len(raw) - 1,
			})
		case html.SelfClosingTagToken:
			if len(stack) > 0 {
				stack[len(stack)-1].childElems++
			}
		case html.TextToken:
			if len(stack) > 0 && strings.TrimSpace(string(raw)) != "" {
				stack[len(stack)-1].hasText = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].tag == string(name) {
					idx = i
					break
				}
			}
			if idx < 0 {
				continue
			}
			// Implicitly closed frames above the match are discarded
			// without annotation.
			f := stack[idx]
			stack = stack[:idx]
			if f.candidate && f.childElems == 0 && f.hasText {
				patches = append(patches, patch{
					start: f.insertAt,
					end:   f.insertAt,
					text:  ` data-editable="` + nextName() + `"`,
				})
			}
		}
	}
	if len(patches) == 0 {
		return markup
	}
	sort.Slice(patches, func(i, j int) bool { return patches[i].start < patches[j].start })
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

// existingFieldNames collects the data-editable values already present so
// generated names never collide with author-chosen ones.
func existingFieldNames(markup string) map[string]bool {
	names := make(map[string]bool)
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		if _, attrs := tagMeta(z); attrs["data-editable"] != "" {
			names[attrs["data-editable"]] = true
		}
	}
	return names
}
