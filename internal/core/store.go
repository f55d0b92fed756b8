package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/skaye/Parley/internal/domain"
)

// RoomStore owns every Room instance. Sessions hold room codes, never
// rooms; all lookups and create/delete go through here.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]*Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[domain.RoomCode]*Room)}
}

// GetOrCreate returns the room for code, creating it with hostID as host
// if absent. An existing room is returned unchanged: two creates racing
// on the same code install exactly one instance and the loser joins it.
func (s *RoomStore) GetOrCreate(code domain.RoomCode, hostID domain.UserID) *Room {
	s.mu.RLock()
	room, ok := s.rooms[code]
	s.mu.RUnlock()
	if ok {
		return room
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok = s.rooms[code]; ok {
		return room
	}
	room = NewRoom(&domain.Room{Code: code, HostID: hostID})
	s.rooms[code] = room
	log.Info().Str("module", "core.store").Str("room", string(code)).
		Str("host", string(hostID)).Msg("room created")
	return room
}

func (s *RoomStore) Get(code domain.RoomCode) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

// Delete removes the room unconditionally (host-departure cascade) and
// marks the instance closed so in-flight joins fail.
func (s *RoomStore) Delete(code domain.RoomCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[code]; ok {
		room.close()
		delete(s.rooms, code)
		log.Info().Str("module", "core.store").Str("room", string(code)).Msg("room deleted")
	}
}

// DeleteIfEmpty removes the room iff it has no members. Emptiness is
// re-checked under the store lock so the delete cannot race a join that
// already fetched the instance.
func (s *RoomStore) DeleteIfEmpty(code domain.RoomCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok || !room.empty() {
		return false
	}
	room.close()
	delete(s.rooms, code)
	log.Info().Str("module", "core.store").Str("room", string(code)).Msg("empty room deleted")
	return true
}

func (s *RoomStore) List() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for code, r := range s.rooms {
		out = append(out, RoomInfo{Code: code, MemberCount: r.MemberCount()})
	}
	return out
}

func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
