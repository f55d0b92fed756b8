package domain

import "errors"

const MaxRoomCodeLen = 36

var (
	ErrRoomCodeEmpty   = errors.New("room code empty")
	ErrRoomCodeTooLong = errors.New("room code too long")
)

type RoomCode string

// Room is the moderation meta for one named group. The host is fixed at
// creation; host authority is checked by identity, not by presence.
type Room struct {
	Code   RoomCode
	HostID UserID
}

func ParseRoomCode(raw string) (RoomCode, error) {
	if len(raw) == 0 {
		return "", ErrRoomCodeEmpty
	}
	if len(raw) > MaxRoomCodeLen {
		return "", ErrRoomCodeTooLong
	}
	return RoomCode(raw), nil
}
