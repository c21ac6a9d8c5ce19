package core

import (
	"github.com/dkeye/WatchParty/internal/domain"
)

type CreateParams struct {
	ID          domain.RoomID
	Password    string
	Permanent   bool
	CreatorName string
	Conn        domain.ConnID
}

type JoinParams struct {
	ID       domain.RoomID
	Password string
	Name     string
	Conn     domain.ConnID
}

// JoinResult carries the room snapshot after a successful join and the member
// displaced by ghost eviction, if any. A connection re-joining its own room
// under a new name reports its old entry as Evicted. Evicted may be set even
// when the join itself failed.
type JoinResult struct {
	Room    domain.Room
	Evicted *domain.Member
}

// RemoveResult describes a member removed by RemoveMember. Room holds the
// remaining members; Deleted reports whether the room was dropped with it.
type RemoveResult struct {
	RoomID  domain.RoomID
	Member  domain.Member
	Room    domain.Room
	Deleted bool
}

// RoomStore is the process-wide table of active rooms.
// Every method is atomic with respect to the others.
type RoomStore interface {
	CreateRoom(p CreateParams) (domain.Room, error)
	JoinRoom(p JoinParams) (JoinResult, error)
	RecordMessage(id domain.RoomID, msg domain.ChatMessage) (domain.ChatMessage, error)
	UpdateMemberStatus(id domain.RoomID, conn domain.ConnID, field domain.StatusField, value bool) (domain.Room, bool)
	RemoveMember(conn domain.ConnID) (RemoveResult, bool)
	LeaveRoom(id domain.RoomID, conn domain.ConnID) (RemoveResult, bool)

	Snapshot(id domain.RoomID) (domain.Room, bool)
	Members(id domain.RoomID) ([]domain.Member, bool)
	RoomOf(conn domain.ConnID) (domain.RoomID, bool)
	List() []domain.RoomInfo
}
