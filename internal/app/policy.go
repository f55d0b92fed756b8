package app

import "github.com/skaye/Parley/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose outbound queue
// overflowed during a broadcast.
type Policy interface {
	OnBackPressure(room *core.Room, member *core.Member) BackpressureAction
}

// SimplePolicy disconnects slow consumers. With no upstream retry or
// buffering contract, an overflowing queue only ever grows.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room *core.Room, member *core.Member) BackpressureAction {
	return KickMember
}
