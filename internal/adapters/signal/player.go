package signal

import (
	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/protocol"
)

func (ctl *SignalWSController) handleRequestVideo(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p protocol.RequestVideoPayload
	if ctl.decode(conn, data, &p) {
		ctl.Orch.RequestVideo(sid, p)
	}
}

func (ctl *SignalWSController) handleEndVideo(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p protocol.EndVideoPayload
	if ctl.decode(conn, data, &p) {
		ctl.Orch.EndVideo(sid, p)
	}
}

func (ctl *SignalWSController) handleSetVideoTime(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p protocol.SetVideoTimePayload
	if ctl.decode(conn, data, &p) {
		ctl.Orch.SetVideoTime(sid, p)
	}
}

func (ctl *SignalWSController) handleNavigateTime(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p protocol.NavigateTimePayload
	if ctl.decode(conn, data, &p) {
		ctl.Orch.NavigateTime(sid, p)
	}
}

func (ctl *SignalWSController) handleSetPlayState(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p protocol.SetPlayStatePayload
	if ctl.decode(conn, data, &p) {
		ctl.Orch.SetPlayState(sid, p)
	}
}
