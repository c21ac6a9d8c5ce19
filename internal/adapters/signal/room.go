package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

func (ctl *SignalWSController) handleCreateRoom(
	sid domain.ConnID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.CreateRoomRequest
	if err := env.Decode(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad create payload")
		ctl.sendAck(conn, env.ID, protocol.Ack{Error: "bad_payload", Message: "Malformed request."})
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(sid)).Str("room", string(p.RoomID)).Str("name", p.UserName).Msg("create")
	ctl.sendAck(conn, env.ID, ctl.Orch.CreateRoom(sid, p))
}

func (ctl *SignalWSController) handleJoinRoom(
	sid domain.ConnID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.JoinRoomRequest
	if err := env.Decode(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendAck(conn, env.ID, protocol.Ack{Error: "bad_payload", Message: "Malformed request."})
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(sid)).Str("room", string(p.RoomID)).Str("name", p.UserName).Msg("join")
	ctl.sendAck(conn, env.ID, ctl.Orch.JoinRoom(sid, p))
}

func (ctl *SignalWSController) handleStatusUpdate(
	sid domain.ConnID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.StatusUpdate
	if err := env.Decode(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad status payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.Orch.UpdateStatus(sid, p)
}
