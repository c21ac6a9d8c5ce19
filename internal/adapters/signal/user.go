package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/protocol"
)

func (ctl *SignalWSController) handleSignup(
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.AuthRequest
	if err := env.Decode(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad signup payload")
		ctl.sendAck(conn, env.ID, protocol.Ack{Error: "bad_payload", Message: "Malformed request."})
		return
	}
	ctl.sendAck(conn, env.ID, ctl.Orch.Signup(p))
}

func (ctl *SignalWSController) handleLogin(
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.AuthRequest
	if err := env.Decode(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad login payload")
		ctl.sendAck(conn, env.ID, protocol.Ack{Error: "bad_payload", Message: "Malformed request."})
		return
	}
	ctl.sendAck(conn, env.ID, ctl.Orch.Login(p))
}
