package orch

import (
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

// RelaySync forwards a playback event to the sender's room mates, stamped
// with the sender's connection id. Playback fields are not inspected and
// conflicting events from both peers are not arbitrated.
func (o *Orchestrator) RelaySync(conn domain.ConnID, ev domain.SyncEvent) PublishResult {
	id, ok := o.resolveRoom(conn, ev.RoomID)
	if !ok {
		return PublishResult{}
	}
	members, ok := o.Rooms.Members(id)
	if !ok {
		return PublishResult{}
	}
	ev.RoomID = id
	ev.SenderID = conn
	return o.publish(id, members, conn, protocol.EventSyncAction, ev)
}
