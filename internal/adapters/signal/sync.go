package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

func (ctl *SignalWSController) handleSyncAction(
	sid domain.ConnID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var ev domain.SyncEvent
	if err := env.Decode(&ev); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad sync payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	res := ctl.Orch.RelaySync(sid, ev)
	log.Debug().Str("module", "signal").Str("conn", string(sid)).Str("action", string(ev.Action)).Float64("time", ev.CurrentTime).Int("sent_to", res.SendTo).Msg("sync relayed")
}
