package orch

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

const maxMessageLen = 2000

// SendMessage stores the message and echoes it to every member, the sender
// included; clients drop their own echo.
func (o *Orchestrator) SendMessage(conn domain.ConnID, p protocol.SendMessage) {
	text := strings.TrimSpace(p.Message)
	if text == "" {
		return
	}
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen]
	}
	id, ok := o.resolveRoom(conn, p.RoomID)
	if !ok {
		return
	}
	unlock := o.lockRoom(id)
	defer unlock()

	members, ok := o.Rooms.Members(id)
	if !ok {
		return
	}
	name := p.UserName
	if name == "" {
		for _, m := range members {
			if m.ConnID == conn {
				name = m.Name
			}
		}
	}
	msg, err := o.Rooms.RecordMessage(id, domain.ChatMessage{
		Text:       text,
		SenderID:   conn,
		SenderName: name,
		ClientID:   p.ClientID,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("conn", string(conn)).Msg("record message")
		return
	}
	o.publish(id, members, "", protocol.EventReceiveMessage, msg)
}

// Typing is relayed to the other member only and never stored.
func (o *Orchestrator) Typing(conn domain.ConnID, p protocol.Typing) {
	id, ok := o.resolveRoom(conn, p.RoomID)
	if !ok {
		return
	}
	members, ok := o.Rooms.Members(id)
	if !ok {
		return
	}
	o.publish(id, members, conn, protocol.EventUserTyping, protocol.Typing{
		UserName: p.UserName,
		IsTyping: p.IsTyping,
	})
}
