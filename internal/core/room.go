package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/skaye/Parley/internal/domain"
)

var (
	ErrRoomClosed = errors.New("room closed")
	ErrBanned     = errors.New("user is banned")
)

// Room is the threadsafe membership state of one named group: host
// identity, live members in join order, and the ban set for this room
// instance's lifetime. It never closes adapter-owned transports.
type Room struct {
	meta *domain.Room

	mu      sync.RWMutex
	members []*Member
	banned  map[domain.UserID]struct{}
	closed  bool
}

func NewRoom(meta *domain.Room) *Room {
	return &Room{
		meta:   meta,
		banned: make(map[domain.UserID]struct{}),
	}
}

func (r *Room) Code() domain.RoomCode { return r.meta.Code }
func (r *Room) HostID() domain.UserID { return r.meta.HostID }

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Add appends a member without consulting the ban set (the create path
// never checks bans). A userId may appear at most once: re-adding an
// existing userId replaces the stale entry.
func (r *Room) Add(m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(m)
}

// Join is Add with the ban check, atomically: a ban landing between the
// check and the append can never readmit the target.
func (r *Room) Join(m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.banned[m.User.ID]; ok {
		return ErrBanned
	}
	return r.addLocked(m)
}

func (r *Room) addLocked(m *Member) error {
	if r.closed {
		return ErrRoomClosed
	}
	for i, cur := range r.members {
		if cur.User.ID == m.User.ID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	r.members = append(r.members, m)
	log.Debug().Str("module", "core.room").Str("room", string(r.meta.Code)).
		Str("user", string(m.User.ID)).Msg("member added")
	return nil
}

// Remove takes a userId out of the membership. The second of two racing
// removals for the same target reports ok=false and must not announce
// the departure again.
func (r *Room) Remove(id domain.UserID) (*Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.User.ID == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			log.Debug().Str("module", "core.room").Str("room", string(r.meta.Code)).
				Str("user", string(id)).Msg("member removed")
			return m, true
		}
	}
	return nil, false
}

// RemoveSession removes the entry for id only while it still belongs
// to sid. A rejoin replaces the entry with a newer session; the stale
// session's departure must then leave the live member alone.
func (r *Room) RemoveSession(id domain.UserID, sid SessionID) (*Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.User.ID == id {
			if m.SID != sid {
				return nil, false
			}
			r.members = append(r.members[:i], r.members[i+1:]...)
			log.Debug().Str("module", "core.room").Str("room", string(r.meta.Code)).
				Str("user", string(id)).Str("sid", string(sid)).Msg("member removed")
			return m, true
		}
	}
	return nil, false
}

func (r *Room) Member(id domain.UserID) (*Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.User.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Ban bars a userId from rejoining for the lifetime of this room
// instance. The set only grows; it dies with the room.
func (r *Room) Ban(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banned[id] = struct{}{}
}

func (r *Room) IsBanned(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.banned[id]
	return ok
}

// Members returns a snapshot of the live membership in join order.
func (r *Room) Members() []*Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Member, len(r.members))
	copy(out, r.members)
	return out
}

// MembersSnapshot is the roster view for userList events.
func (r *Room) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, MemberDTO{Username: m.User.Username, UserID: m.User.ID})
	}
	return out
}

// Broadcast delivers a frame to every live member, at most once each.
// Membership is snapshotted under the read lock and the fan-out happens
// after unlock, so one slow socket never stalls mutations on this room.
// Failed sends are skipped and reported, not retried.
func (r *Room) Broadcast(f Frame) PublishResult {
	members := r.Members()
	res := PublishResult{}
	for _, m := range members {
		if err := m.Conn.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.meta.Code)).
		Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// close marks the room dead so a concurrent join cannot land on an
// instance the store no longer holds. Called by the store only.
func (r *Room) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Room) empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members) == 0
}
