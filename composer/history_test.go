package composer

import (
	"fmt"
	"testing"
	"time"
)

func TestHistoryTextCoalescing(t *testing.T) {
	clk := newFakeClock()
	m := testModel(clk)
	m.LoadTemplate(Template{ID: "t1", HTML: "<!--components--><p>start</p><!--/components-->"})
	id := m.Order()[0]
	field := ""
	for name := range m.Component(id).Fields {
		field = name
	}

	m.UpdateEditableText(SourceVisualView, id, field, "s")
	clk.Advance(100 * time.Millisecond)
	m.UpdateEditableText(SourceVisualView, id, field, "st")
	clk.Advance(400 * time.Millisecond)
	m.UpdateEditableText(SourceVisualView, id, field, "str")

	if got := m.history.Depth(); got != 1 {
		t.Errorf("Depth() = %d after rapid edits, want 1", got)
	}

	clk.Advance(600 * time.Millisecond)
	m.UpdateEditableText(SourceVisualView, id, field, "strx")

	if got := m.history.Depth(); got != 2 {
		t.Errorf("Depth() = %d after idle gap, want 2", got)
	}
}

func TestHistoryCoalescedUndoRestoresPreBurstText(t *testing.T) {
	clk := newFakeClock()
	m := testModel(clk)
	m.LoadTemplate(Template{ID: "t1", HTML: "<!--components--><p>start</p><!--/components-->"})
	id := m.Order()[0]
	field := ""
	for name := range m.Component(id).Fields {
		field = name
	}

	m.UpdateEditableText(SourceVisualView, id, field, "a")
	clk.Advance(50 * time.Millisecond)
	m.UpdateEditableText(SourceVisualView, id, field, "ab")
	clk.Advance(50 * time.Millisecond)
	m.UpdateEditableText(SourceVisualView, id, field, "abc")

	m.Undo()

	if got := m.Component(id).Fields[field].Text; got != "start" {
		t.Errorf("text after undo = %q, want %q", got, "start")
	}
}

func TestHistoryStructuralChangesNeverCoalesce(t *testing.T) {
	clk := newFakeClock()
	m := testModel(clk)
	m.LoadTemplate(Template{ID: "t1"})

	m.AddComponent(SourceExternal, "<p>a</p>", "", -1)
	m.AddComponent(SourceExternal, "<p>b</p>", "", -1)
	m.ReorderComponents(SourceExternal, 0, 1)

	if got := m.history.Depth(); got != 3 {
		t.Errorf("Depth() = %d, want 3", got)
	}
}

func TestHistoryBound(t *testing.T) {
	clk := newFakeClock()
	m := testModel(clk)
	m.LoadTemplate(Template{ID: "t1"})

	for i := 0; i < 60; i++ {
		m.AddComponent(SourceExternal, fmt.Sprintf("<p>n%d</p>", i), "", -1)
	}

	if got := m.history.Depth(); got != maxHistoryDepth {
		t.Fatalf("Depth() = %d, want %d", got, maxHistoryDepth)
	}

	undone := 0
	for m.Undo() {
		undone++
	}
	if undone != maxHistoryDepth {
		t.Errorf("undo count = %d, want %d", undone, maxHistoryDepth)
	}
	// The ten oldest entries were evicted, so the deepest reachable state
	// still holds the first ten components.
	if got := m.Len(); got != 10 {
		t.Errorf("Len() after exhausting undo = %d, want 10", got)
	}
}

func TestHistorySnapshotsAreIsolated(t *testing.T) {
	clk := newFakeClock()
	m := testModel(clk)
	m.LoadTemplate(Template{ID: "t1"})
	id := m.AddComponent(SourceExternal, "<p>orig</p>", "", -1)
	field := ""
	for name := range m.Component(id).Fields {
		field = name
	}

	m.UpdateEditableText(SourceExternal, id, field, "first")
	clk.Advance(time.Second)
	m.UpdateEditableText(SourceExternal, id, field, "second")
	clk.Advance(time.Second)

	// Mutating the live component must not leak into recorded snapshots.
	m.Component(id).Fields[field].Text = "mangled"

	m.Undo()
	if got := m.Component(id).Fields[field].Text; got != "first" {
		t.Errorf("text after undo = %q, want %q", got, "first")
	}
	m.Undo()
	if got := m.Component(id).Fields[field].Text; got != "orig" {
		t.Errorf("text after second undo = %q, want %q", got, "orig")
	}
}

func TestHistoryRedoStackDiscardedOnRecord(t *testing.T) {
	var h History
	at := time.Unix(1700000000, 0)
	h.Record(KindAdd, Snapshot{}, at)
	if _, ok := h.Undo(Snapshot{}); !ok {
		t.Fatalf("Undo() failed on non-empty past")
	}
	if !h.CanRedo() {
		t.Fatalf("CanRedo() = false after undo")
	}
	h.Record(KindDelete, Snapshot{}, at.Add(time.Second))
	if h.CanRedo() {
		t.Errorf("CanRedo() = true after new record, want false")
	}
}
