package app

import (
	"context"
	"sync"

	"github.com/dkeye/devcircle/internal/core"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Sink   core.Sink
	Rooms  map[domain.RoomName]struct{}
	Cancel context.CancelFunc
}

// Registry tracks which rooms every live session belongs to.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// Bind registers a session. Re-binding an existing sid keeps its room set.
func (r *Registry) Bind(sink core.Sink, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sid := sink.SID()
	if e, ok := r.sessions[sid]; ok {
		e.Sink = sink
		if cancel != nil {
			e.Cancel = cancel
		}
		return
	}
	r.sessions[sid] = &sessionEntry{
		Sink:   sink,
		Rooms:  make(map[domain.RoomName]struct{}),
		Cancel: cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

func (r *Registry) GetSession(sid core.SessionID) (core.Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Sink, true
	}
	return nil, false
}

// AddRoom reports whether the session was newly associated with name.
func (r *Registry) AddRoom(sid core.SessionID, name domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if _, in := e.Rooms[name]; in {
		return false
	}
	e.Rooms[name] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(name)).Msg("joined room")
	return true
}

func (r *Registry) InRoom(sid core.SessionID, name domain.RoomName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	_, in := e.Rooms[name]
	return in
}

func (r *Registry) RoomsOf(sid core.SessionID) []domain.RoomName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomName, 0, len(e.Rooms))
	for name := range e.Rooms {
		out = append(out, name)
	}
	return out
}

// Unbind forgets the session and returns the rooms it was in.
func (r *Registry) Unbind(sid core.SessionID) []domain.RoomName {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	delete(r.sessions, sid)
	out := make([]domain.RoomName, 0, len(e.Rooms))
	for name := range e.Rooms {
		out = append(out, name)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("rooms", len(out)).Msg("unbind session")
	return out
}

// Cancel tears down the session's transport, if it registered a cancel func.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok || e.Cancel == nil {
		return false
	}
	e.Cancel()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
