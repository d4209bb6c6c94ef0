package composer

import "time"

// EntryKind classifies what mutation a history entry preceded.
type EntryKind string

const (
	KindAdd        EntryKind = "add"
	KindDelete     EntryKind = "delete"
	KindReorder    EntryKind = "reorder"
	KindTextChange EntryKind = "text_change"
	KindHTMLChange EntryKind = "html_change"
)

const (
	maxHistoryDepth    = 50
	textCoalesceWindow = 500 * time.Millisecond
)

// Snapshot is a deep copy of the document's structural state at the moment
// before a mutation. Header/footer, metadata, and selection are deliberately
// excluded: undoing a text edit does not un-select a component.
type Snapshot struct {
	Components map[string]*ComponentNode
	Order      []string
}

type historyEntry struct {
	kind EntryKind
	at   time.Time
	snap Snapshot
}

// History holds the undo/redo stacks. The past stack is bounded; the oldest
// entry is silently dropped on overflow. Any new mutation clears the future
// stack.
type History struct {
	past   []historyEntry
	future []historyEntry
}

// Record pushes a pre-mutation snapshot and clears the redo stack.
func (h *History) Record(kind EntryKind, snap Snapshot, at time.Time) {
	h.future = nil
	h.past = append(h.past, historyEntry{kind: kind, at: at, snap: snap})
	if len(h.past) > maxHistoryDepth {
		h.past = append(h.past[:0], h.past[len(h.past)-maxHistoryDepth:]...)
	}
}

// RecordText is Record for text edits, with coalescing: when the most recent
// entry is also a text change less than the coalesce window old, only its
// timestamp is refreshed, so a burst of keystrokes costs one undo step.
func (h *History) RecordText(snap Snapshot, at time.Time) {
	if n := len(h.past); n > 0 {
		last := &h.past[n-1]
		if last.kind == KindTextChange && at.Sub(last.at) < textCoalesceWindow {
			last.at = at
			h.future = nil
			return
		}
	}
	h.Record(KindTextChange, snap, at)
}

// Undo pops the most recent entry, parking the caller's current state on the
// redo stack, and returns the snapshot to restore.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	n := len(h.past)
	if n == 0 {
		return Snapshot{}, false
	}
	entry := h.past[n-1]
	h.past = h.past[:n-1]
	h.future = append([]historyEntry{{kind: entry.kind, at: entry.at, snap: current}}, h.future...)
	return entry.snap, true
}

// Redo shifts the front of the redo stack, parking the caller's current
// state on the undo stack, and returns the snapshot to restore.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.future) == 0 {
		return Snapshot{}, false
	}
	entry := h.future[0]
	h.future = h.future[1:]
	h.past = append(h.past, historyEntry{kind: entry.kind, at: entry.at, snap: current})
	return entry.snap, true
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depth returns the number of undoable entries.
func (h *History) Depth() int { return len(h.past) }

// Reset discards both stacks, used when a new template is loaded.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
}
