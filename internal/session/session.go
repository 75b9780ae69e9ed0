package session

import (
	"sync"

	"github.com/RichardKnop/ajxgate/internal/engine"
)

type Scope string

const (
	// ScopeGlobal shares one session between all connections.
	ScopeGlobal Scope = "global"
	// ScopeConnection gives every connection its own session.
	ScopeConnection Scope = "connection"
)

// Session holds the currently selected database handle.
type Session struct {
	mu      sync.RWMutex
	current engine.Database
}

func New() *Session {
	return new(Session)
}

// Current returns the active database, false when INIT has not run yet.
func (s *Session) Current() (engine.Database, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Swap installs db as the active database and returns the previous handle so
// the caller decides when to close it.
func (s *Session) Swap(db engine.Database) engine.Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.current
	s.current = db
	return previous
}

// Close releases the active database, if any.
func (s *Session) Close() error {
	previous := s.Swap(nil)
	if previous == nil {
		return nil
	}
	return previous.Close()
}
