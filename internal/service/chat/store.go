package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/chat"
)

const (
	DefaultMaxHistory  = 20
	DefaultTTL         = 30 * time.Minute
	DefaultMaxSessions = 10000
)

// Store keeps bounded, time-limited conversation memory per session id.
// Unknown ids are never an error: they simply start an empty conversation.
type Store interface {
	History(sessionID string) []chat.Exchange
	Append(sessionID, userText, assistantText string)
	Trim(sessionID string)
	Sweep() int
	Len() int
}

// Options tunes a MemoryStore. Zero values fall back to the defaults.
type Options struct {
	MaxHistory  int
	TTL         time.Duration
	MaxSessions int
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
	// OnEvict is called when a session is dropped to make room for a new one.
	OnEvict func(sessionID string)
}

type session struct {
	history    []chat.Exchange
	lastActive time.Time
}

// MemoryStore is the in-process Store. Sessions live in an LRU so the number
// of tracked conversations stays bounded even between sweeps.
type MemoryStore struct {
	mu       sync.Mutex
	sessions *simplelru.LRU[string, *session]
	opts     Options
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore(opts Options) *MemoryStore {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	// entries arrive in user/assistant pairs
	if opts.MaxHistory%2 != 0 {
		opts.MaxHistory++
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// size is positive, so NewLRU cannot fail
	sessions, _ := simplelru.NewLRU[string, *session](opts.MaxSessions, nil)

	return &MemoryStore{
		sessions: sessions,
		opts:     opts,
	}
}

// MaxHistory reports the effective per-session cap.
func (s *MemoryStore) MaxHistory() int {
	return s.opts.MaxHistory
}

// History returns a copy of the session's exchanges and marks it active,
// creating the session when the id has not been seen before.
func (s *MemoryStore) History(sessionID string) []chat.Exchange {
	if sessionID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touchLocked(sessionID)
	copied := make([]chat.Exchange, len(sess.history))
	copy(copied, sess.history)
	return copied
}

// Append records one user/assistant exchange and trims the history to the cap.
// Anonymous callers (empty id) get no persisted memory.
func (s *MemoryStore) Append(sessionID, userText, assistantText string) {
	if sessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touchLocked(sessionID)
	now := sess.lastActive
	sess.history = append(sess.history,
		chat.Exchange{ID: uuid.NewString(), Role: chat.RoleUser, Text: userText, CreatedAt: now},
		chat.Exchange{ID: uuid.NewString(), Role: chat.RoleAssistant, Text: assistantText, CreatedAt: now},
	)
	s.trimLocked(sess)
}

// Trim discards the oldest entries of a session above the history cap.
func (s *MemoryStore) Trim(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions.Peek(sessionID); ok {
		s.trimLocked(sess)
	}
}

// Sweep removes every session idle for longer than the TTL and reports how
// many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.opts.Now().Add(-s.opts.TTL)
	removed := 0
	for _, id := range s.sessions.Keys() {
		sess, ok := s.sessions.Peek(id)
		if !ok {
			continue
		}
		if sess.lastActive.Before(cutoff) {
			s.sessions.Remove(id)
			removed++
		}
	}
	return removed
}

// Len reports how many sessions are currently tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// Peek returns a snapshot of a session without touching it.
func (s *MemoryStore) Peek(sessionID string) (chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Peek(sessionID)
	if !ok {
		return chat.Session{}, false
	}

	history := make([]chat.Exchange, len(sess.history))
	copy(history, sess.history)
	return chat.Session{
		ID:         sessionID,
		History:    history,
		LastActive: sess.lastActive,
	}, true
}

func (s *MemoryStore) touchLocked(sessionID string) *session {
	now := s.opts.Now()
	if sess, ok := s.sessions.Get(sessionID); ok {
		sess.lastActive = now
		return sess
	}

	sess := &session{
		history:    make([]chat.Exchange, 0, s.opts.MaxHistory),
		lastActive: now,
	}
	if evicted := s.evictOldestIfFullLocked(); evicted != "" && s.opts.OnEvict != nil {
		s.opts.OnEvict(evicted)
	}
	s.sessions.Add(sessionID, sess)
	return sess
}

func (s *MemoryStore) evictOldestIfFullLocked() string {
	if s.sessions.Len() < s.opts.MaxSessions {
		return ""
	}
	id, _, ok := s.sessions.RemoveOldest()
	if !ok {
		return ""
	}
	return id
}

func (s *MemoryStore) trimLocked(sess *session) {
	overflow := len(sess.history) - s.opts.MaxHistory
	if overflow <= 0 {
		return
	}
	kept := make([]chat.Exchange, s.opts.MaxHistory, cap(sess.history))
	copy(kept, sess.history[overflow:])
	sess.history = kept
}
