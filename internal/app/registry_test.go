package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skaye/Parley/internal/domain"
)

func TestRegistryRoomBinding(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	r.Bind("s1", conn, nil)

	_, _, bound := r.RoomOf("s1")
	assert.False(t, bound)

	assert.True(t, r.BindRoom("s1", "R1", ident("a1", "A")))
	code, user, bound := r.RoomOf("s1")
	require.True(t, bound)
	assert.Equal(t, domain.RoomCode("R1"), code)
	assert.Equal(t, domain.UserID("a1"), user.ID)

	// Binding an unknown session is refused.
	assert.False(t, r.BindRoom("ghost", "R1", ident("x", "X")))
}

func TestRegistryClearRoomIsOneShot(t *testing.T) {
	r := NewRegistry()
	r.Bind("s1", &fakeConn{}, nil)
	r.BindRoom("s1", "R1", ident("a1", "A"))

	code, user, ok := r.ClearRoom("s1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomCode("R1"), code)
	assert.Equal(t, "A", user.Username)

	_, _, ok = r.ClearRoom("s1")
	assert.False(t, ok)
	_, _, bound := r.RoomOf("s1")
	assert.False(t, bound)
}

func TestRegistryUnbindIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Bind("s1", &fakeConn{}, nil)
	r.MarkModerated("s1")

	entry := r.Unbind("s1")
	require.NotNil(t, entry)
	assert.True(t, entry.Moderated)

	assert.Nil(t, r.Unbind("s1"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.Bind("s1", &fakeConn{}, cancel)

	assert.True(t, r.Cancel("s1"))
	select {
	case <-ctx.Done():
	default:
		t.Fatal("cancel did not fire")
	}
	assert.False(t, r.Cancel("ghost"))
}
