package insight

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"statement_insight/pkg/models"
)

// Session is one uploaded statement with its analysis and chat transcript.
// The transcript lives only in memory and is never truncated.
type Session struct {
	ID        string
	Source    string // uploaded file name
	CreatedAt time.Time
	Analysis  *Analysis

	mu         sync.Mutex
	narrative  string
	transcript []models.ChatMessage
}

// Transcript returns a copy of the chat history in order.
func (s *Session) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Narrative returns the last generated review, or "".
func (s *Session) Narrative() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.narrative
}

func (s *Session) setNarrative(text string) {
	s.mu.Lock()
	s.narrative = text
	s.mu.Unlock()
}

// SessionStore keeps sessions in memory, keyed by ID.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a new session for an analysis.
func (s *SessionStore) Create(source string, a *Analysis) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: s.now().UTC(),
		Analysis:  a,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get looks up a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete drops a session; unknown IDs are ignored.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// List returns sessions newest first.
func (s *SessionStore) List() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Len is the number of sessions held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
