package signal

import "github.com/dkeye/WatchParty/internal/protocol"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	ctl.send(conn, protocol.EventPong, "", nil)
}
