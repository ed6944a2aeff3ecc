package signal

import "github.com/dkeye/clique/internal/protocol"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	ctl.sendJSON(conn, protocol.Bare{Type: protocol.Pong})
}
