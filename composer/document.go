// Package composer implements the document model behind the email composer:
// a flat ordered list of HTML components with named editable text fields,
// parsed from and serialized back to a single HTML string, with undo/redo
// history and synchronization against a code view and a visual view.
//
// The package performs no I/O. Persistence, sanitization, and id generation
// are injected by the caller.
package composer

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ComponentType tags the provenance of a component.
type ComponentType string

const (
	TypeTemplate ComponentType = "template"
	TypeSnippet  ComponentType = "snippet"
	TypeSection  ComponentType = "section"
	TypeUnknown  ComponentType = "unknown"
)

func componentTypeFrom(s string) ComponentType {
	switch ComponentType(s) {
	case TypeTemplate, TypeSnippet, TypeSection:
		return ComponentType(s)
	}
	return TypeUnknown
}

// Source identifies which surface produced a mutation. The sync layer uses
// it to recognize self-inflicted changes and skip redundant view refreshes.
type Source int

const (
	SourceExternal Source = iota
	SourceCodeView
	SourceVisualView
)

// EditableField is one named text region inside a component. Text is always
// plain text with significant newlines; HTML escaping and newline-to-<br>
// conversion happen only at serialization time.
type EditableField struct {
	Name string
	Text string
}

// ComponentNode is one reorderable fragment of the composed document.
// InnerHTML is the markup exactly as parsed, with editable regions marked by
// a data-editable attribute. Text edits mutate only Fields; InnerHTML changes
// only through a full re-parse.
type ComponentNode struct {
	ID              string
	Type            ComponentType
	SourceSnippetID string
	InnerHTML       string
	Fields          map[string]*EditableField
}

func (c *ComponentNode) clone() *ComponentNode {
	out := *c
	out.Fields = make(map[string]*EditableField, len(c.Fields))
	for name, f := range c.Fields {
		cp := *f
		out.Fields[name] = &cp
	}
	return &out
}

// EditingField names the single field currently in interactive text edit.
type EditingField struct {
	ComponentID string
	FieldName   string
}

// Template is the persisted record a Model loads from and saves to.
type Template struct {
	ID       string
	Title    string
	Category string
	Tags     []string
	HTML     string
}

// Model owns the composed document: ordered components, header/footer
// markup, selection state, and history. It is not safe for concurrent use;
// callers serialize access (see Session).
type Model struct {
	templateID string
	title      string
	category   string
	tags       []string

	headerHTML string
	footerHTML string
	hasMarkers bool

	components map[string]*ComponentNode
	order      []string

	selected string
	editing  *EditingField
	editMode bool

	dirty      bool
	updateSeq  uint64
	lastSource Source

	history History

	newID func() string
	now   func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator replaces the component id generator (default: UUID v4).
func WithIDGenerator(fn func() string) Option {
	return func(m *Model) { m.newID = fn }
}

// WithClock replaces the history timestamp source (default: time.Now).
func WithClock(fn func() time.Time) Option {
	return func(m *Model) { m.now = fn }
}

// NewModel creates an empty document model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		components: make(map[string]*ComponentNode),
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadTemplate initializes the document from a stored record, parsing its
// HTML into header, components, and footer. History is reset and the
// document starts clean.
func (m *Model) LoadTemplate(t Template) {
	res := parseDocument(t.HTML, m.newID)

	m.templateID = t.ID
	m.title = t.Title
	m.category = t.Category
	m.tags = append([]string(nil), t.Tags...)
	m.headerHTML = res.header
	m.footerHTML = res.footer
	m.hasMarkers = res.hasMarkers
	m.components = make(map[string]*ComponentNode, len(res.components))
	m.order = m.order[:0]
	for _, c := range res.components {
		m.components[c.ID] = c
		m.order = append(m.order, c.ID)
	}
	m.selected = ""
	m.editing = nil
	m.history.Reset()
	m.dirty = false
	m.updateSeq++
	m.lastSource = SourceExternal
}

// AddComponent parses fragmentHTML into a single new component, auto
// annotating editable fields, and inserts it at insertIndex in the order
// (clamped; pass -1 to append). It returns the new component's id.
// Malformed markup is kept best-effort; there is no error path.
func (m *Model) AddComponent(src Source, fragmentHTML, sourceSnippetID string, insertIndex int) string {
	id := m.newID()
	inner := Annotate(id, strings.TrimSpace(fragmentHTML))
	ctype := TypeSection
	if sourceSnippetID != "" {
		ctype = TypeSnippet
	}
	node := &ComponentNode{
		ID:              id,
		Type:            ctype,
		SourceSnippetID: sourceSnippetID,
		InnerHTML:       inner,
		Fields:          extractFields(inner),
	}

	m.history.Record(KindAdd, m.snapshot(), m.now())
	m.components[id] = node
	if insertIndex < 0 || insertIndex > len(m.order) {
		insertIndex = len(m.order)
	}
	m.order = append(m.order, "")
	copy(m.order[insertIndex+1:], m.order[insertIndex:])
	m.order[insertIndex] = id
	m.touch(src)
	return id
}

// DeleteComponent removes a component. Unknown ids are a no-op. Selection
// and editing state referencing the component are cleared.
func (m *Model) DeleteComponent(src Source, id string) {
	if _, ok := m.components[id]; !ok {
		return
	}
	m.history.Record(KindDelete, m.snapshot(), m.now())
	delete(m.components, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.selected == id {
		m.selected = ""
	}
	if m.editing != nil && m.editing.ComponentID == id {
		m.editing = nil
	}
	m.touch(src)
}

// ReorderComponents moves the component at from to position to, using
// remove-then-reinsert semantics. Out-of-range or equal indices are a no-op.
func (m *Model) ReorderComponents(src Source, from, to int) {
	n := len(m.order)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return
	}
	m.history.Record(KindReorder, m.snapshot(), m.now())
	id := m.order[from]
	m.order = append(m.order[:from], m.order[from+1:]...)
	m.order = append(m.order, "")
	copy(m.order[to+1:], m.order[to:])
	m.order[to] = id
	m.touch(src)
}

// UpdateEditableText sets a field's text. Unknown component ids are a no-op;
// unknown field names create the field (permissive). Rapid successive text
// changes coalesce into a single history entry.
func (m *Model) UpdateEditableText(src Source, componentID, fieldName, text string) {
	c, ok := m.components[componentID]
	if !ok {
		return
	}
	m.history.RecordText(m.snapshot(), m.now())
	f, ok := c.Fields[fieldName]
	if !ok {
		f = &EditableField{Name: fieldName}
		c.Fields[fieldName] = f
	}
	f.Text = text
	m.touch(src)
}

// SetHTML replaces the whole document body from a full HTML string, as
// produced by a code view edit. Header, footer, components, and order are
// rebuilt wholesale. Always records a history entry (no coalescing).
func (m *Model) SetHTML(src Source, full string) {
	m.history.Record(KindHTMLChange, m.snapshot(), m.now())
	res := parseDocument(full, m.newID)
	m.headerHTML = res.header
	m.footerHTML = res.footer
	m.hasMarkers = res.hasMarkers
	m.components = make(map[string]*ComponentNode, len(res.components))
	m.order = m.order[:0]
	for _, c := range res.components {
		m.components[c.ID] = c
		m.order = append(m.order, c.ID)
	}
	m.dropStaleRefs()
	m.touch(src)
}

// GetHTML serializes the document: header, insertion markers (when the
// loaded template carried them), each component in order, footer. It is a
// pure derivation and never mutates state.
func (m *Model) GetHTML() string {
	var b strings.Builder
	b.WriteString(m.headerHTML)
	if m.hasMarkers {
		b.WriteString(markerStart)
		b.WriteString("\n")
	}
	for i, id := range m.order {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(SerializeComponent(m.components[id]))
	}
	if m.hasMarkers {
		if len(m.order) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(markerEnd)
	}
	b.WriteString(m.footerHTML)
	return b.String()
}

// SetTitle updates the document title. Not part of undo history.
func (m *Model) SetTitle(title string) {
	if m.title == title {
		return
	}
	m.title = title
	m.dirty = true
}

// SetCategory updates the document category. Not part of undo history.
func (m *Model) SetCategory(category string) {
	if m.category == category {
		return
	}
	m.category = category
	m.dirty = true
}

// SetTags replaces the document tags. Not part of undo history.
func (m *Model) SetTags(tags []string) {
	m.tags = append([]string(nil), tags...)
	m.dirty = true
}

// SetSelectedComponentID sets the selected component; empty string clears.
// Selecting an unknown id is a no-op.
func (m *Model) SetSelectedComponentID(id string) {
	if id != "" {
		if _, ok := m.components[id]; !ok {
			return
		}
	}
	m.selected = id
}

// SetEditingField sets which field is in interactive edit; nil ends editing.
// Callers must commit any buffered text for the previous field first.
func (m *Model) SetEditingField(f *EditingField) {
	if f == nil {
		m.editing = nil
		return
	}
	if _, ok := m.components[f.ComponentID]; !ok {
		return
	}
	cp := *f
	m.editing = &cp
}

// SetEditMode toggles the visual view between preview and edit.
func (m *Model) SetEditMode(on bool) { m.editMode = on }

// Undo restores the document to the state before the most recent mutation.
// Returns false when there is nothing to undo.
func (m *Model) Undo() bool {
	snap, ok := m.history.Undo(m.snapshot())
	if !ok {
		return false
	}
	m.restore(snap)
	m.touch(SourceExternal)
	return true
}

// Redo reapplies the most recently undone mutation. Returns false when
// there is nothing to redo.
func (m *Model) Redo() bool {
	snap, ok := m.history.Redo(m.snapshot())
	if !ok {
		return false
	}
	m.restore(snap)
	m.touch(SourceExternal)
	return true
}

func (m *Model) CanUndo() bool { return m.history.CanUndo() }
func (m *Model) CanRedo() bool { return m.history.CanRedo() }

// Read accessors.

func (m *Model) TemplateID() string { return m.templateID }
func (m *Model) Title() string      { return m.title }
func (m *Model) Category() string   { return m.category }
func (m *Model) Tags() []string     { return append([]string(nil), m.tags...) }
func (m *Model) IsDirty() bool      { return m.dirty }
func (m *Model) EditMode() bool     { return m.editMode }

// MarkSaved clears the dirty flag after a successful external save.
func (m *Model) MarkSaved() { m.dirty = false }

// UpdateSeq is a counter incremented on every mutation. Sync controllers
// compare it against a remembered value to detect change without diffing.
func (m *Model) UpdateSeq() uint64 { return m.updateSeq }

// LastSource reports which surface produced the most recent mutation.
func (m *Model) LastSource() Source { return m.lastSource }

func (m *Model) SelectedComponentID() string { return m.selected }

// CurrentEditingField returns a copy of the active editing state, or nil.
func (m *Model) CurrentEditingField() *EditingField {
	if m.editing == nil {
		return nil
	}
	cp := *m.editing
	return &cp
}

// Len returns the number of components.
func (m *Model) Len() int { return len(m.order) }

// Order returns a copy of the component order.
func (m *Model) Order() []string { return append([]string(nil), m.order...) }

// Component returns the component with the given id, or nil.
func (m *Model) Component(id string) *ComponentNode { return m.components[id] }

// Components returns the components in document order.
func (m *Model) Components() []*ComponentNode {
	out := make([]*ComponentNode, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.components[id])
	}
	return out
}

// IndexOf returns the order index of id, or -1.
func (m *Model) IndexOf(id string) int {
	for i, v := range m.order {
		if v == id {
			return i
		}
	}
	return -1
}

func (m *Model) touch(src Source) {
	m.dirty = true
	m.updateSeq++
	m.lastSource = src
}

func (m *Model) snapshot() Snapshot {
	comps := make(map[string]*ComponentNode, len(m.components))
	for id, c := range m.components {
		comps[id] = c.clone()
	}
	return Snapshot{
		Components: comps,
		Order:      append([]string(nil), m.order...),
	}
}

func (m *Model) restore(snap Snapshot) {
	m.components = snap.Components
	m.order = snap.Order
	m.dropStaleRefs()
}

// dropStaleRefs clears selection and editing state that point at components
// no longer present after a wholesale replace.
func (m *Model) dropStaleRefs() {
	if m.selected != "" {
		if _, ok := m.components[m.selected]; !ok {
			m.selected = ""
		}
	}
	if m.editing != nil {
		if _, ok := m.components[m.editing.ComponentID]; !ok {
			m.editing = nil
		}
	}
}
