package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/skaye/Parley/internal/core"
	"github.com/skaye/Parley/internal/domain"
)

// sessionEntry is the server-owned record for one connection: its room
// binding (or none) and the moderated flag that suppresses the
// voluntary-leave path when a kick/ban already announced the closure.
type sessionEntry struct {
	RoomCode  domain.RoomCode
	User      *domain.User
	Session   core.SignalConnection
	Moderated bool
	Cancel    context.CancelFunc
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

// Bind registers a freshly upgraded connection with no room binding.
func (r *Registry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

// BindRoom attaches the session to a room under a claimed identity.
func (r *Registry) BindRoom(sid core.SessionID, code domain.RoomCode, user *domain.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	entry.RoomCode = code
	entry.User = user
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("room", string(code)).Str("user", string(user.ID)).Msg("bound room")
	return true
}

// RoomOf reports the session's current room binding.
func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomCode, *domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomCode == "" {
		return "", nil, false
	}
	return entry.RoomCode, entry.User, true
}

// ClearRoom detaches the session from its room and returns the binding
// it held. The voluntary-leave path runs on the returned values; a
// second clear reports ok=false so the leave reconciles at most once.
func (r *Registry) ClearRoom(sid core.SessionID) (domain.RoomCode, *domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomCode == "" {
		return "", nil, false
	}
	code, user := entry.RoomCode, entry.User
	entry.RoomCode = ""
	entry.User = nil
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("cleared room binding")
	return code, user, true
}

// MarkModerated flags the session so its disconnect is reconciled as a
// moderation closure, not a voluntary leave.
func (r *Registry) MarkModerated(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sid]; ok {
		entry.Moderated = true
	}
}

// Unbind removes and returns the session record. The nil return on a
// second call makes disconnect reconciliation idempotent.
func (r *Registry) Unbind(sid core.SessionID) *sessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
	return entry
}

// Cancel tears down the session's connection context, if any.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	entry, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if entry.Cancel != nil {
		entry.Cancel()
	}
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
