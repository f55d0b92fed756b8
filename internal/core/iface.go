package core

import "github.com/skaye/Parley/internal/domain"

// Frame is a single encoded outbound event.
type Frame []byte

// SessionID identifies one transport connection.
type SessionID string

// SignalConnection abstracts the transport endpoint for one client.
// Owned by the adapter; the adapter must Close() it. TrySend never
// blocks: a full outbound queue reports backpressure instead.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Member is one entry of a room's live membership: claimed identity plus
// a non-owning reference to the session's transport endpoint.
type Member struct {
	SID  SessionID
	User *domain.User
	Conn SignalConnection
}

// MemberDTO is the read-only roster view sent in userList events.
type MemberDTO struct {
	Username string        `json:"username"`
	UserID   domain.UserID `json:"userId"`
}

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []*Member
}

type RoomInfo struct {
	Code        domain.RoomCode `json:"code"`
	MemberCount int             `json:"memberCount"`
}
