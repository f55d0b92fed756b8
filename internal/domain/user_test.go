package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("a1", "Alice")
	assert.NoError(t, err)
	assert.Equal(t, UserID("a1"), u.ID)
	assert.Equal(t, "Alice", u.Username)

	_, err = NewUser("", "Alice")
	assert.ErrorIs(t, err, ErrUserIDEmpty)

	_, err = NewUser("a1", "")
	assert.ErrorIs(t, err, ErrUsernameEmpty)

	_, err = NewUser(UserID(strings.Repeat("x", MaxUserIDLen+1)), "Alice")
	assert.ErrorIs(t, err, ErrUserIDTooLong)

	_, err = NewUser("a1", strings.Repeat("x", MaxUsernameLen+1))
	assert.ErrorIs(t, err, ErrUsernameTooLong)
}

func TestParseRoomCode(t *testing.T) {
	code, err := ParseRoomCode("R1")
	assert.NoError(t, err)
	assert.Equal(t, RoomCode("R1"), code)

	_, err = ParseRoomCode("")
	assert.ErrorIs(t, err, ErrRoomCodeEmpty)

	_, err = ParseRoomCode(strings.Repeat("x", MaxRoomCodeLen+1))
	assert.ErrorIs(t, err, ErrRoomCodeTooLong)
}
