package composer

import (
	"strings"
	"testing"
	"time"
)

// manualScheduler captures scheduled callbacks so tests control time.
type manualScheduler struct {
	pending func()
}

func (s *manualScheduler) schedule(_ time.Duration, fn func()) func() {
	s.pending = fn
	return func() { s.pending = nil }
}

func (s *manualScheduler) fire(t *testing.T) {
	t.Helper()
	if s.pending == nil {
		t.Fatalf("no pending debounce callback")
	}
	fn := s.pending
	s.pending = nil
	fn()
}

func setupCodeSync(t *testing.T) (*Model, *CodeBuffer, *CodeSync, *manualScheduler) {
	t.Helper()
	m := testModel(newFakeClock())
	m.LoadTemplate(Template{ID: "t1", HTML: "<!--components--><p>start</p><!--/components-->"})
	buf := &CodeBuffer{}
	buf.SetContent(m.GetHTML())
	sched := &manualScheduler{}
	s := NewCodeSync(m, buf, WithScheduler(sched.schedule))
	return m, buf, s, sched
}

func TestCodeSyncDebouncedApply(t *testing.T) {
	m, buf, s, sched := setupCodeSync(t)

	buf.SetContent("<!--components--><h2>typed</h2><!--/components-->")
	s.TextChanged()
	if strings.Contains(m.Components()[0].InnerHTML, "typed") {
		t.Fatalf("model changed before debounce fired")
	}
	sched.fire(t)

	if got := m.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	c := m.Components()[0]
	if !strings.Contains(c.InnerHTML, "typed") {
		t.Errorf("model did not pick up typed content: %q", c.InnerHTML)
	}
	if got := m.LastSource(); got != SourceCodeView {
		t.Errorf("LastSource() = %v, want SourceCodeView", got)
	}
}

func TestCodeSyncNewerEditReplacesPending(t *testing.T) {
	m, buf, s, sched := setupCodeSync(t)

	buf.SetContent("<!--components--><p>first draft</p><!--/components-->")
	s.TextChanged()
	buf.SetContent("<!--components--><p>final draft</p><!--/components-->")
	s.TextChanged()
	sched.fire(t)

	c := m.Components()[0]
	if !strings.Contains(c.InnerHTML, "final draft") {
		t.Errorf("pending edit not replaced by newer one: %q", c.InnerHTML)
	}
	if sched.pending != nil {
		t.Errorf("stale debounce callback left pending")
	}
}

func TestCodeSyncSelfInflictedChangeSkipsRewrite(t *testing.T) {
	_, buf, s, sched := setupCodeSync(t)

	typed := "<!--components--><p>typed by hand</p><!--/components-->"
	buf.SetContent(typed)
	s.TextChanged()
	sched.fire(t)
	s.ModelChanged()

	if got := buf.Content(); got != typed {
		t.Errorf("code view rewritten after its own edit:\ngot  %q\nwant %q", got, typed)
	}
}

func TestCodeSyncModelChangeRefreshesView(t *testing.T) {
	m, buf, s, _ := setupCodeSync(t)
	buf.SetCursor(1, 4)
	buf.SetScrollTop(120)

	m.AddComponent(SourceVisualView, "<p>dropped</p>", "", -1)
	s.ModelChanged()

	if got := buf.Content(); got != m.GetHTML() {
		t.Errorf("view content not refreshed")
	}
	line, col := buf.Cursor()
	if line != 1 || col != 4 {
		t.Errorf("cursor = (%d,%d), want (1,4)", line, col)
	}
	if got := buf.ScrollTop(); got != 120 {
		t.Errorf("scroll = %d, want 120", got)
	}
}

func TestCodeSyncCursorClampedToLineCount(t *testing.T) {
	m, buf, s, _ := setupCodeSync(t)
	buf.SetCursor(999, 2)

	m.AddComponent(SourceVisualView, "<p>x</p>", "", -1)
	s.ModelChanged()

	wantLines := strings.Count(buf.Content(), "\n") + 1
	line, _ := buf.Cursor()
	if line != wantLines {
		t.Errorf("cursor line = %d, want clamped to %d", line, wantLines)
	}
}

func TestCodeSyncNoChangeNoRewrite(t *testing.T) {
	_, buf, s, _ := setupCodeSync(t)
	sentinel := "untouched"
	buf.SetContent(sentinel)

	s.ModelChanged()

	if got := buf.Content(); got != sentinel {
		t.Errorf("view rewritten without a model change: %q", got)
	}
}

func TestCodeSyncFlushCancelsPending(t *testing.T) {
	m, buf, s, sched := setupCodeSync(t)

	buf.SetContent("<!--components--><p>immediate</p><!--/components-->")
	s.TextChanged()
	s.Flush()

	if sched.pending != nil {
		t.Errorf("debounce still pending after explicit flush")
	}
	if !strings.Contains(m.Components()[0].InnerHTML, "immediate") {
		t.Errorf("flush did not apply content")
	}
}

func TestCodeBufferLineCount(t *testing.T) {
	buf := &CodeBuffer{}
	buf.SetContent("one\ntwo\nthree")
	if got := buf.LineCount(); got != 3 {
		t.Errorf("LineCount() = %d, want 3", got)
	}
	buf.SetContent("")
	if got := buf.LineCount(); got != 1 {
		t.Errorf("LineCount() = %d, want 1", got)
	}
}
