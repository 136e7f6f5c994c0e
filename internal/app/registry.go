package app

import (
	"context"
	"sync"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/observability/metrics"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Caller core.Caller
	Signal core.SignalConnection
	Cancel context.CancelFunc
}

// Registry tracks live connections. It is the connection set the fanout
// broadcasts to; the roster lives elsewhere.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.ConnectionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.ConnectionID]*sessionEntry),
	}
}

func (r *Registry) Bind(caller core.Caller, signal core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[caller.ConnectionID] = &sessionEntry{
		Caller: caller,
		Signal: signal,
		Cancel: cancel,
	}
	metrics.ChatConnectionsActive.Set(float64(len(r.sessions)))
	log.Info().Str("module", "app.registry").Str("conn", string(caller.ConnectionID)).Str("user", caller.Username).Msg("bound connection")
}

func (r *Registry) Unbind(id core.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	metrics.ChatConnectionsActive.Set(float64(len(r.sessions)))
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbind connection")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ConnectionsOf counts the live connections of one user.
func (r *Registry) ConnectionsOf(username string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.sessions {
		if e.Caller.Username == username {
			n++
		}
	}
	return n
}

// KickAll closes every connection; used on shutdown since hijacked
// connections outlive http.Server.Shutdown.
func (r *Registry) KickAll() int {
	n := 0
	for _, snap := range r.Connections() {
		if r.Kick(snap.ID) {
			n++
		}
	}
	return n
}

type regSnap struct {
	ID     core.ConnectionID
	Signal core.SignalConnection
}

func (r *Registry) Connections() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.sessions))
	for id, e := range r.sessions {
		out = append(out, regSnap{ID: id, Signal: e.Signal})
	}
	return out
}

// Kick cancels the connection's context and closes its transport so the
// read loop exits and runs the regular disconnect path.
func (r *Registry) Kick(id core.ConnectionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	if e.Signal != nil {
		e.Signal.Close()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("kicked connection")
	return true
}
