package composer

import (
	"strings"
	"testing"
)

func setupVisual(t *testing.T) (*Model, *VisualAdapter) {
	t.Helper()
	m := testModel(newFakeClock())
	m.LoadTemplate(Template{ID: "t1", HTML: "<!--components--><p>alpha</p>\n<p>beta</p><!--/components-->"})
	return m, NewVisualAdapter(m, nil)
}

func fieldName(t *testing.T, c *ComponentNode) string {
	t.Helper()
	for name := range c.Fields {
		return name
	}
	t.Fatalf("component %s has no fields", c.ID)
	return ""
}

func TestVisualRenderSubstitutesFieldValues(t *testing.T) {
	m, v := setupVisual(t)
	c := m.Components()[0]
	m.UpdateEditableText(SourceExternal, c.ID, fieldName(t, c), "edited")

	out := v.Render()
	if len(out) != 2 {
		t.Fatalf("Render() returned %d components, want 2", len(out))
	}
	if !strings.Contains(out[0].HTML, ">edited</p>") {
		t.Errorf("rendered markup missing edited value: %q", out[0].HTML)
	}
	if !strings.Contains(out[1].HTML, ">beta</p>") {
		t.Errorf("rendered markup missing untouched value: %q", out[1].HTML)
	}
}

func TestVisualRenderAppliesSanitizer(t *testing.T) {
	m := testModel(newFakeClock())
	m.LoadTemplate(Template{ID: "t1", HTML: "<p>hi</p>"})
	called := false
	v := NewVisualAdapter(m, func(s string) string {
		called = true
		return strings.ReplaceAll(s, "hi", "clean")
	})

	out := v.Render()
	if !called {
		t.Fatalf("sanitizer not called")
	}
	if !strings.Contains(out[0].HTML, "clean") {
		t.Errorf("sanitizer output not used: %q", out[0].HTML)
	}
}

func TestVisualEditCommitOnBlur(t *testing.T) {
	m, v := setupVisual(t)
	c := m.Components()[0]
	field := fieldName(t, c)

	v.BeginEdit(c.ID, field)
	if ef := m.CurrentEditingField(); ef == nil || ef.ComponentID != c.ID {
		t.Fatalf("editing state not set: %+v", ef)
	}
	seq := m.UpdateSeq()
	v.TextInput("keystroke one")
	v.TextInput("keystroke two")
	if got := m.UpdateSeq(); got != seq {
		t.Fatalf("keystrokes reached the model before commit")
	}

	v.CommitEdit()

	if got := c.Fields[field].Text; got != "keystroke two" {
		t.Errorf("committed text = %q, want %q", got, "keystroke two")
	}
	if got := m.UpdateSeq(); got != seq+1 {
		t.Errorf("UpdateSeq() = %d, want exactly one mutation (%d)", got, seq+1)
	}
	if m.CurrentEditingField() != nil {
		t.Errorf("editing state not cleared on commit")
	}
}

func TestVisualCommitWithoutInputIsNoop(t *testing.T) {
	m, v := setupVisual(t)
	c := m.Components()[0]
	v.BeginEdit(c.ID, fieldName(t, c))
	seq := m.UpdateSeq()

	v.CommitEdit()

	if got := m.UpdateSeq(); got != seq {
		t.Errorf("commit without text input mutated the model")
	}
}

func TestVisualBeginEditCommitsPrevious(t *testing.T) {
	m, v := setupVisual(t)
	first := m.Components()[0]
	second := m.Components()[1]
	f1 := fieldName(t, first)

	v.BeginEdit(first.ID, f1)
	v.TextInput("pending change")
	v.BeginEdit(second.ID, fieldName(t, second))

	if got := first.Fields[f1].Text; got != "pending change" {
		t.Errorf("switching fields lost buffered edit: %q", got)
	}
	if ef := m.CurrentEditingField(); ef == nil || ef.ComponentID != second.ID {
		t.Errorf("editing state = %+v, want second component", ef)
	}
}

func TestVisualDropSnippetBeforeSelection(t *testing.T) {
	m, v := setupVisual(t)
	order := m.Order()
	v.Select(order[1])

	id := v.DropSnippet("<h2>new</h2>", "snip-7")

	got := m.Order()
	want := []string{order[0], id, order[1]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Order() = %v, want %v", got, want)
		}
	}
	if m.Component(id).Type != TypeSnippet {
		t.Errorf("dropped component type = %q, want %q", m.Component(id).Type, TypeSnippet)
	}
}

func TestVisualDropSnippetAppendsWithoutSelection(t *testing.T) {
	m, v := setupVisual(t)

	id := v.DropSnippet("<h2>new</h2>", "snip-7")

	order := m.Order()
	if order[len(order)-1] != id {
		t.Errorf("Order() = %v, want new component appended", order)
	}
}

func TestVisualNeedsRenderSkipsSelfEdit(t *testing.T) {
	m, v := setupVisual(t)
	c := m.Components()[0]
	field := fieldName(t, c)
	v.Render()

	v.BeginEdit(c.ID, field)
	if v.NeedsRender() {
		t.Fatalf("NeedsRender() = true with no model change")
	}

	// A self-inflicted model change during an active edit must not force a
	// re-render that would discard the uncommitted DOM state.
	m.UpdateEditableText(SourceVisualView, c.ID, field, "mid-edit")
	if v.NeedsRender() {
		t.Errorf("NeedsRender() = true for self-inflicted change during edit")
	}

	// An external change always re-renders.
	m.UpdateEditableText(SourceCodeView, c.ID, field, "external")
	if !v.NeedsRender() {
		t.Errorf("NeedsRender() = false for external change")
	}
}

func TestVisualRenderFlagsSelection(t *testing.T) {
	m, v := setupVisual(t)
	order := m.Order()
	v.Select(order[1])

	out := v.Render()
	if out[0].Selected || !out[1].Selected {
		t.Errorf("selection flags = %v/%v, want false/true", out[0].Selected, out[1].Selected)
	}
}

func TestVisualDeleteCommitsThenRemoves(t *testing.T) {
	m, v := setupVisual(t)
	first := m.Components()[0]
	second := m.Components()[1]
	f2 := fieldName(t, second)

	v.BeginEdit(second.ID, f2)
	v.TextInput("last words")
	v.Delete(first.ID)

	if m.Component(first.ID) != nil {
		t.Errorf("component not deleted")
	}
	if got := second.Fields[f2].Text; got != "last words" {
		t.Errorf("pending edit lost on delete: %q", got)
	}
}
