package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// Session is one live connection: its transport endpoint and the cancel
// func that tears down its pumps.
type Session struct {
	Conn   domain.ConnID
	Token  string
	Signal core.SignalConnection
	cancel context.CancelFunc
}

// Registry tracks live connections by connection id. Room membership lives
// in core; this table only knows how to reach a connection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ConnID]*Session)}
}

func (r *Registry) BindSignal(conn domain.ConnID, token string, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conn] = &Session{Conn: conn, Token: token, Signal: sig, cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("token", token).Msg("bound signal")
}

func (r *Registry) GetSession(conn domain.ConnID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[conn]
	return s, ok
}

func (r *Registry) Unbind(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conn)
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("unbind session")
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel stops the connection's pumps; the read loop's exit runs the
// regular disconnect path.
func (r *Registry) Cancel(conn domain.ConnID) bool {
	r.mu.RLock()
	s, ok := r.sessions[conn]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("canceled session")
	return true
}
