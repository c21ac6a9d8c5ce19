package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

func (o *Orchestrator) CreateRoom(conn domain.ConnID, req protocol.CreateRoomRequest) protocol.Ack {
	if err := domain.ValidateUsername(req.UserName); err != nil {
		return protocol.Fail(err)
	}
	prev, hadPrev := o.Rooms.RoomOf(conn)

	unlock := o.lockRoom(req.RoomID)
	room, err := o.Rooms.CreateRoom(core.CreateParams{
		ID:          req.RoomID,
		Password:    req.Password,
		Permanent:   req.IsPermanent,
		CreatorName: req.UserName,
		Conn:        conn,
	})
	unlock()
	if err != nil {
		log.Info().Err(err).Str("module", "app.orch").Str("conn", string(conn)).Str("room", string(req.RoomID)).Msg("create-room refused")
		return protocol.Fail(err)
	}
	if hadPrev && prev != req.RoomID {
		o.leaveRoom(prev, conn)
	}
	return protocol.Ack{Success: true, Room: &room}
}

func (o *Orchestrator) JoinRoom(conn domain.ConnID, req protocol.JoinRoomRequest) protocol.Ack {
	if err := domain.ValidateUsername(req.UserName); err != nil {
		return protocol.Fail(err)
	}
	prev, hadPrev := o.Rooms.RoomOf(conn)

	unlock := o.lockRoom(req.RoomID)
	res, err := o.Rooms.JoinRoom(core.JoinParams{
		ID:       req.RoomID,
		Password: req.Password,
		Name:     req.UserName,
		Conn:     conn,
	})
	if res.Evicted != nil {
		o.notifyEvicted(req.RoomID, conn, *res.Evicted)
	}
	if err != nil {
		unlock()
		log.Info().Err(err).Str("module", "app.orch").Str("conn", string(conn)).Str("room", string(req.RoomID)).Msg("join-room refused")
		return protocol.Fail(err)
	}
	o.publish(req.RoomID, res.Room.Members, conn, protocol.EventUserJoined, protocol.Presence{
		UserName: req.UserName,
		UserID:   conn,
	})
	unlock()

	if hadPrev && prev != req.RoomID {
		o.leaveRoom(prev, conn)
	}
	return protocol.Ack{Success: true, Room: &res.Room}
}

// notifyEvicted tells the room, and the displaced connection itself, that
// the stale member is gone.
func (o *Orchestrator) notifyEvicted(id domain.RoomID, joiner domain.ConnID, evicted domain.Member) {
	members, _ := o.Rooms.Members(id)
	recipients := append([]domain.Member{evicted}, members...)
	o.publish(id, recipients, joiner, protocol.EventUserLeft, protocol.Presence{
		UserName: evicted.Name,
		UserID:   evicted.ConnID,
	})
}

func (o *Orchestrator) UpdateStatus(conn domain.ConnID, p protocol.StatusUpdate) {
	if !p.Type.Valid() {
		log.Warn().Str("module", "app.orch").Str("conn", string(conn)).Str("field", string(p.Type)).Msg("unknown status field")
		return
	}
	id, ok := o.resolveRoom(conn, p.RoomID)
	if !ok {
		return
	}
	unlock := o.lockRoom(id)
	defer unlock()
	room, ok := o.Rooms.UpdateMemberStatus(id, conn, p.Type, p.Value)
	if !ok {
		return
	}
	o.publish(id, room.Members, "", protocol.EventRoomUpdate, protocol.RoomUpdate{Users: room.Members})
}

// Leave removes conn from its room, if any, and tells whoever remains.
func (o *Orchestrator) Leave(conn domain.ConnID) {
	id, ok := o.Rooms.RoomOf(conn)
	if !ok {
		return
	}
	unlock := o.lockRoom(id)
	defer unlock()
	res, ok := o.Rooms.RemoveMember(conn)
	o.notifyLeft(conn, res, ok)
}

// leaveRoom drops conn from a room it is moving away from. It runs only
// after the move succeeded, so a refused create or join leaves the old
// room untouched.
func (o *Orchestrator) leaveRoom(id domain.RoomID, conn domain.ConnID) {
	unlock := o.lockRoom(id)
	defer unlock()
	res, ok := o.Rooms.LeaveRoom(id, conn)
	o.notifyLeft(conn, res, ok)
}

func (o *Orchestrator) notifyLeft(conn domain.ConnID, res core.RemoveResult, removed bool) {
	if !removed || res.Deleted {
		return
	}
	o.publish(res.RoomID, res.Room.Members, conn, protocol.EventUserLeft, protocol.Presence{
		UserName: res.Member.Name,
		UserID:   conn,
	})
}

func (o *Orchestrator) OnDisconnect(conn domain.ConnID) {
	o.Leave(conn)
	o.Registry.Unbind(conn)
}
