package chat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Session is the client-generated identity that scopes server-side
// conversation memory. It changes only when the conversation is cleared.
type Session struct {
	mu sync.RWMutex
	id string
}

func NewSession() *Session {
	return &Session{id: NewSessionID()}
}

func NewSessionID() string {
	return fmt.Sprintf("session_%s", uuid.NewString())
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Renew replaces the session id and returns the previous one.
func (s *Session) Renew() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.id
	s.id = NewSessionID()
	return previous
}
