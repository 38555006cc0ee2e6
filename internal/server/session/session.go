// Package session tracks the authentication state of one connection and the
// set of authenticated sessions held by a server.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/simplegameutils/sgu/internal/common"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session belongs to a single connection. Authenticated is terminal.
type Session struct {
	id string

	mu          sync.RWMutex
	state       State
	userID      string
	displayName string
}

func New() *Session {
	return &Session{id: uuid.NewString()}
}

// ID identifies the connection, not the user.
func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Authenticated() bool { return s.State() == Authenticated }

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayName
}

// Authenticate binds the session to a user. A session authenticates once.
func (s *Session) Authenticate(userID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticated {
		return ErrAlreadyAuthenticated
	}
	s.state = Authenticated
	s.userID = userID
	s.displayName = displayName
	return nil
}

var ErrAlreadyAuthenticated = common.Errorf(common.ErrIllegalState, "already authenticated")
