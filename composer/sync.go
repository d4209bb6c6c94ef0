package composer

import (
	"strings"
	"time"
)

// CodeView is the free-text HTML editing surface the sync controller reads
// from and writes to.
type CodeView interface {
	Content() string
	SetContent(html string)
	Cursor() (line, col int)
	SetCursor(line, col int)
	ScrollTop() int
	SetScrollTop(top int)
	LineCount() int
}

const defaultCodeDebounce = 300 * time.Millisecond

// CodeSync mediates between the code view and the model. Text changes in the
// view are debounced before being applied as a full HTML replace; model
// changes from other surfaces replace the view's content while preserving
// its cursor and scroll position. Feedback loops are prevented by comparing
// the model's update sequence and mutation source.
type CodeSync struct {
	model    *Model
	view     CodeView
	debounce time.Duration
	schedule func(time.Duration, func()) func()
	cancel   func()
	lastSeq  uint64
}

// CodeSyncOption configures a CodeSync.
type CodeSyncOption func(*CodeSync)

// WithDebounce overrides the idle window before a text change is applied.
func WithDebounce(d time.Duration) CodeSyncOption {
	return func(s *CodeSync) { s.debounce = d }
}

// WithScheduler replaces the timer used for debouncing. The scheduler runs
// fn after d and returns a cancel func. Tests inject a manual scheduler.
func WithScheduler(fn func(d time.Duration, fn func()) func()) CodeSyncOption {
	return func(s *CodeSync) { s.schedule = fn }
}

// NewCodeSync wires a code view to a model.
func NewCodeSync(m *Model, v CodeView, opts ...CodeSyncOption) *CodeSync {
	s := &CodeSync{
		model:    m,
		view:     v,
		debounce: defaultCodeDebounce,
		lastSeq:  m.UpdateSeq(),
	}
	s.schedule = func(d time.Duration, fn func()) func() {
		t := time.AfterFunc(d, fn)
		return func() { t.Stop() }
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TextChanged notes that the view's content changed and (re)starts the
// debounce window. A pending application is entirely replaced by the newer
// one.
func (s *CodeSync) TextChanged() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = s.schedule(s.debounce, s.Flush)
}

// Flush applies the view's current content to the model immediately,
// cancelling any pending debounce. The resulting model change is recorded
// as self-inflicted so ModelChanged will not rewrite the view.
func (s *CodeSync) Flush() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.model.SetHTML(SourceCodeView, s.view.Content())
	s.lastSeq = s.model.UpdateSeq()
}

// ModelChanged refreshes the view after a model mutation from another
// surface. The cursor (clamped to the new line count) and scroll offset are
// restored after the content replace. Self-inflicted changes are skipped.
func (s *CodeSync) ModelChanged() {
	seq := s.model.UpdateSeq()
	if seq == s.lastSeq {
		return
	}
	s.lastSeq = seq
	if s.model.LastSource() == SourceCodeView {
		return
	}
	line, col := s.view.Cursor()
	top := s.view.ScrollTop()
	s.view.SetContent(s.model.GetHTML())
	if max := s.view.LineCount(); line > max {
		line = max
	}
	s.view.SetCursor(line, col)
	s.view.SetScrollTop(top)
}

// CodeBuffer is a plain in-memory CodeView. The web layer keeps one per
// editing session, mirroring the state the browser's textarea reports.
type CodeBuffer struct {
	content string
	line    int
	col     int
	top     int
}

func (b *CodeBuffer) Content() string         { return b.content }
func (b *CodeBuffer) SetContent(html string)  { b.content = html }
func (b *CodeBuffer) Cursor() (int, int)      { return b.line, b.col }
func (b *CodeBuffer) SetCursor(line, col int) { b.line, b.col = line, col }
func (b *CodeBuffer) ScrollTop() int          { return b.top }
func (b *CodeBuffer) SetScrollTop(top int)    { b.top = top }

func (b *CodeBuffer) LineCount() int {
	return strings.Count(b.content, "\n") + 1
}
