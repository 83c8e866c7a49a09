// internal/session/session.go
//
// Per-visitor contact-form sessions.
//
// Context
//   Each visitor owns exactly one contact.Form for as long as they keep
//   coming back.  The browser holds only an opaque random ID in an
//   HttpOnly cookie; the state itself stays in this process.  Nothing is
//   written to disk, so a restart starts every visitor afresh.
//
//   Store lazily creates sessions and keeps them in a sync.Map.  A new
//   session never pushes the count past MaxEntries: the least recently
//   used one is dropped first.  Idle sessions are swept by evictor.go.  Do runs a callback with the visitor's Form while
//   holding that session's lock, so events from one visitor apply in
//   order and different visitors never contend.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/contact"
	"github.com/yanizio/contactform/internal/metrics"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("session store closed")

// Options tunes a Store.  Zero values take the defaults below.
type Options struct {
	CookieName    string
	IdleTTL       time.Duration
	MaxEntries    int
	EvictInterval time.Duration
	Secure        bool // mark the cookie Secure regardless of r.TLS
}

// Static defaults.  Override via config.
const (
	DefaultCookieName    = "contact_session"
	DefaultIdleTTL       = 30 * time.Minute
	DefaultMaxEntries    = 10000
	DefaultEvictInterval = time.Minute
)

// entry is one visitor's session.
type entry struct {
	mu       sync.Mutex
	form     *contact.Form
	lastSeen int64 // UnixNano
}

// Store maps session IDs to forms.
type Store struct {
	opts Options
	m    sync.Map // id → *entry
	n    atomic.Int64
	now  func() time.Time

	createMu sync.Mutex // serializes creation so MaxEntries holds

	stop   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// New constructs a Store and starts the background evictor.  Call Close
// to stop it.
func New(opts Options) *Store {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = DefaultEvictInterval
	}

	s := &Store{
		opts: opts,
		now:  time.Now,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.evictLoop()
	return s
}

// Do looks up (or creates) the visitor's session, refreshes the cookie,
// and runs fn with the session ID and Form while holding the session's
// lock.  fn must not retain the Form after it returns.
func (s *Store) Do(w http.ResponseWriter, r *http.Request, fn func(id string, f *contact.Form) error) error {
	if s.closed.Load() {
		return ErrClosed
	}

	id, ent := s.lookup(r)
	s.setCookie(w, r, id)

	ent.mu.Lock()
	defer ent.mu.Unlock()
	atomic.StoreInt64(&ent.lastSeen, s.now().UnixNano())
	return fn(id, ent.form)
}

// Len reports the number of live sessions.
func (s *Store) Len() int { return int(s.n.Load()) }

// Close stops the evictor and rejects further calls to Do.  It is safe to
// call more than once.
func (s *Store) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stop)
		<-s.done
	}
	return nil
}

// lookup returns the session named by the request cookie, creating a new
// one when the cookie is missing, malformed, or names an evicted session.
func (s *Store) lookup(r *http.Request) (string, *entry) {
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			if v, ok := s.m.Load(c.Value); ok {
				return c.Value, v.(*entry)
			}
		}
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	if over := s.Len() - s.opts.MaxEntries + 1; over > 0 {
		if n := s.evictOldest(over); n > 0 {
			zap.S().Debugw("sessions evicted at capacity", "lru", n)
		}
	}

	id := uuid.NewString()
	ent := &entry{form: contact.New(), lastSeen: s.now().UnixNano()}
	s.m.Store(id, ent)
	s.n.Add(1)
	metrics.ActiveSessions.Inc()
	zap.S().Debugw("session created", "session", id)
	return id, ent
}

func (s *Store) setCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.opts.IdleTTL / time.Second),
	})
}

// remove deletes id when it still maps to ent.
func (s *Store) remove(id string, ent *entry) bool {
	if s.m.CompareAndDelete(id, ent) {
		s.n.Add(-1)
		metrics.ActiveSessions.Dec()
		metrics.SessionEvictTotal.Inc()
		return true
	}
	return false
}
