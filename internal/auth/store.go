// Package auth is the credential lookup used by auth-login and auth-signup.
//
// Passwords are kept and compared as plain strings. That is the behavior the
// clients were built against; hashing would be a deliberate protocol change.
package auth

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/domain"
)

// Credentials is the opaque store the gateway talks to.
type Credentials interface {
	Signup(username, password string) (domain.User, error)
	Login(username, password string) (domain.User, error)
}

// MemoryStore keeps accounts in process memory; they are gone on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	now   func() time.Time
}

var _ Credentials = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*domain.User),
		now:   time.Now,
	}
}

func (s *MemoryStore) Signup(username, password string) (domain.User, error) {
	u, err := domain.NewUser(username, password, s.now())
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return domain.User{}, domain.ErrUsernameTaken
	}
	s.users[username] = u
	log.Info().Str("module", "auth.store").Str("username", username).Msg("user signed up")
	return *u, nil
}

func (s *MemoryStore) Login(username, password string) (domain.User, error) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if u.Password != password {
		log.Warn().Str("module", "auth.store").Str("username", username).Msg("incorrect password")
		return domain.User{}, domain.ErrIncorrectPassword
	}
	return *u, nil
}
