package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skaye/Parley/internal/domain"
)

func TestStoreGetOrCreateReturnsExistingUnchanged(t *testing.T) {
	s := NewRoomStore()
	r1 := s.GetOrCreate("R1", "a1")
	assert.Equal(t, domain.UserID("a1"), r1.HostID())

	// A second create for the same code must not reassign the host.
	r2 := s.GetOrCreate("R1", "b1")
	assert.Same(t, r1, r2)
	assert.Equal(t, domain.UserID("a1"), r2.HostID())
}

func TestStoreGet(t *testing.T) {
	s := NewRoomStore()
	_, ok := s.Get("R1")
	assert.False(t, ok)

	created := s.GetOrCreate("R1", "a1")
	got, ok := s.Get("R1")
	assert.True(t, ok)
	assert.Same(t, created, got)
}

func TestStoreConcurrentCreateInstallsOneInstance(t *testing.T) {
	s := NewRoomStore()
	var wg sync.WaitGroup
	rooms := make([]*Room, 32)
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = s.GetOrCreate("R1", domain.UserID("host"))
		}(i)
	}
	wg.Wait()
	for _, r := range rooms {
		assert.Same(t, rooms[0], r)
	}
	assert.Equal(t, 1, s.Count())
}

func TestStoreDeleteMarksRoomClosed(t *testing.T) {
	s := NewRoomStore()
	r := s.GetOrCreate("R1", "a1")
	s.Delete("R1")

	_, ok := s.Get("R1")
	assert.False(t, ok)
	// A stale reference cannot admit new members.
	assert.ErrorIs(t, r.Add(member("s1", "b1", "B")), ErrRoomClosed)
}

func TestStoreDeleteIfEmpty(t *testing.T) {
	s := NewRoomStore()
	r := s.GetOrCreate("R1", "a1")
	assert.NoError(t, r.Add(member("s1", "a1", "A")))

	assert.False(t, s.DeleteIfEmpty("R1"))
	_, ok := s.Get("R1")
	assert.True(t, ok)

	r.Remove("a1")
	assert.True(t, s.DeleteIfEmpty("R1"))
	_, ok = s.Get("R1")
	assert.False(t, ok)

	assert.False(t, s.DeleteIfEmpty("R1"))
}

func TestStoreList(t *testing.T) {
	s := NewRoomStore()
	r := s.GetOrCreate("R1", "a1")
	assert.NoError(t, r.Add(member("s1", "a1", "A")))
	s.GetOrCreate("R2", "b1")

	infos := s.List()
	assert.Equal(t, 2, len(infos))
	counts := map[domain.RoomCode]int{}
	for _, info := range infos {
		counts[info.Code] = info.MemberCount
	}
	assert.Equal(t, 1, counts["R1"])
	assert.Equal(t, 0, counts["R2"])
}
