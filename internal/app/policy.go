package app

import "github.com/dkeye/WatchParty/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose outbound queue is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, member domain.ConnID) BackpressureAction
}

// SimplePolicy kicks slow members. A peer that cannot keep up with sync
// traffic is drifting anyway; it reconnects and rejoins.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room domain.RoomID, member domain.ConnID) BackpressureAction {
	return KickMember
}
