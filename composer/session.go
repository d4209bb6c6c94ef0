package composer

import (
	"sync"
	"time"
)

// Session is one open editing session for a template. The mutex serializes
// every read and mutation of the underlying model, giving the same
// guarantees a single-threaded event loop would: mutations run to
// completion, in dispatch order, with no partially applied state visible.
type Session struct {
	mu sync.Mutex

	Model  *Model
	Visual *VisualAdapter
	Code   *CodeSync
	Buffer *CodeBuffer

	lastUsed time.Time
}

// Do runs fn while holding the session lock. All access to the session's
// model, adapters, and buffer must go through Do.
func (s *Session) Do(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	fn(s)
}

// Registry hands out at most one Session per template id, so two browser
// tabs editing the same template share one document model.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	sanitize SanitizeFunc
	opts     []Option
}

// NewRegistry creates a session registry. opts are applied to every model
// the registry creates.
func NewRegistry(sanitize SanitizeFunc, opts ...Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		sanitize: sanitize,
		opts:     opts,
	}
}

// Open returns the session for t.ID, creating and loading it when absent.
func (r *Registry) Open(t Template) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[t.ID]; ok {
		return s
	}
	m := NewModel(r.opts...)
	m.LoadTemplate(t)
	buf := &CodeBuffer{}
	buf.SetContent(m.GetHTML())
	s := &Session{
		Model:    m,
		Visual:   NewVisualAdapter(m, r.sanitize),
		Buffer:   buf,
		lastUsed: time.Now(),
	}
	s.Code = NewCodeSync(m, buf)
	r.sessions[t.ID] = s
	return s
}

// Get returns the session for id, or nil when none is open.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Close discards the session for id, dropping its model and history.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// CloseAll discards every open session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.sessions {
		delete(r.sessions, id)
	}
}

// Prune closes sessions idle longer than maxIdle and returns how many were
// dropped.
func (r *Registry) Prune(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
