package composer

// SanitizeFunc strips script-execution vectors from model-derived HTML
// before it reaches a live view. It must preserve the data-editable and
// data-component-* attributes or the round trip breaks.
type SanitizeFunc func(string) string

// RenderedComponent is one component prepared for the visual view: markup
// with current field values substituted and sanitized.
type RenderedComponent struct {
	ID       string
	Type     ComponentType
	Selected bool
	Editing  bool
	HTML     string
}

// VisualAdapter projects the model into the directly-editable visual view
// and routes user interactions back. In-place text edits are buffered and
// committed to the model only on blur, escape, or explicit save, so a
// keystroke never triggers a re-render that would fight the user's caret.
type VisualAdapter struct {
	model    *Model
	sanitize SanitizeFunc
	pending  *pendingEdit
	lastSeq  uint64
}

type pendingEdit struct {
	componentID string
	fieldName   string
	text        string
	dirty       bool
}

// NewVisualAdapter wires the visual view to a model. A nil sanitize func
// renders markup unfiltered.
func NewVisualAdapter(m *Model, sanitize SanitizeFunc) *VisualAdapter {
	if sanitize == nil {
		sanitize = func(s string) string { return s }
	}
	return &VisualAdapter{model: m, sanitize: sanitize, lastSeq: m.UpdateSeq()}
}

// BeginEdit starts buffering text input for one field, committing any edit
// still in flight for another field first. Unknown components are a no-op.
func (v *VisualAdapter) BeginEdit(componentID, fieldName string) {
	v.CommitEdit()
	c := v.model.Component(componentID)
	if c == nil {
		return
	}
	text := ""
	if f, ok := c.Fields[fieldName]; ok {
		text = f.Text
	}
	v.pending = &pendingEdit{componentID: componentID, fieldName: fieldName, text: text}
	v.model.SetEditingField(&EditingField{ComponentID: componentID, FieldName: fieldName})
}

// TextInput buffers the field's current text without touching the model.
func (v *VisualAdapter) TextInput(text string) {
	if v.pending == nil {
		return
	}
	v.pending.text = text
	v.pending.dirty = true
}

// CommitEdit flushes the buffered edit into the model and ends field
// editing. Called on blur, escape, and explicit save.
func (v *VisualAdapter) CommitEdit() {
	p := v.pending
	if p == nil {
		return
	}
	v.pending = nil
	v.model.SetEditingField(nil)
	if p.dirty {
		v.model.UpdateEditableText(SourceVisualView, p.componentID, p.fieldName, p.text)
	}
}

// DropSnippet inserts a library snippet dropped onto the view: before the
// selected component when there is one, else appended at the end. Returns
// the new component id.
func (v *VisualAdapter) DropSnippet(fragmentHTML, snippetID string) string {
	v.CommitEdit()
	idx := -1
	if sel := v.model.SelectedComponentID(); sel != "" {
		idx = v.model.IndexOf(sel)
	}
	return v.model.AddComponent(SourceVisualView, fragmentHTML, snippetID, idx)
}

// Reorder moves a component after committing any in-flight edit.
func (v *VisualAdapter) Reorder(from, to int) {
	v.CommitEdit()
	v.model.ReorderComponents(SourceVisualView, from, to)
}

// Delete removes a component after committing any in-flight edit.
func (v *VisualAdapter) Delete(id string) {
	v.CommitEdit()
	v.model.DeleteComponent(SourceVisualView, id)
}

// Select marks a component as selected, committing any in-flight edit.
func (v *VisualAdapter) Select(id string) {
	v.CommitEdit()
	v.model.SetSelectedComponentID(id)
}

// NeedsRender reports whether the view must re-derive its projection.
// Re-render is skipped while a field edit is in progress and the pending
// model change came from this view, so uncommitted DOM edits survive.
func (v *VisualAdapter) NeedsRender() bool {
	if v.model.UpdateSeq() == v.lastSeq {
		return false
	}
	if v.pending != nil && v.model.LastSource() == SourceVisualView {
		return false
	}
	return true
}

// Render derives the rendered projection of every component in order.
func (v *VisualAdapter) Render() []RenderedComponent {
	v.lastSeq = v.model.UpdateSeq()
	editing := v.model.CurrentEditingField()
	selected := v.model.SelectedComponentID()
	comps := v.model.Components()
	out := make([]RenderedComponent, 0, len(comps))
	for _, c := range comps {
		out = append(out, RenderedComponent{
			ID:       c.ID,
			Type:     c.Type,
			Selected: c.ID == selected,
			Editing:  editing != nil && editing.ComponentID == c.ID,
			HTML:     v.sanitize(replaceFieldText(c.InnerHTML, c.Fields)),
		})
	}
	return out
}
