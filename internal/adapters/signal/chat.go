package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

func (ctl *SignalWSController) handleSendMessage(
	sid domain.ConnID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.SendMessage
	if err := env.Decode(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("conn", string(sid)).Msg("chat rate limited")
		ctl.sendError(conn, "rate_limited")
		return
	}
	ctl.Orch.SendMessage(sid, p)
}

func (ctl *SignalWSController) handleTyping(
	sid domain.ConnID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.Typing
	if err := env.Decode(&p); err != nil {
		ctl.sendError(conn, "bad_payload")
		return
	}
	// typing fires per keystroke; it is not stored and does not count
	// against the chat budget
	ctl.Orch.Typing(sid, p)
}
