package signal

import (
	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/protocol"
)

func (ctl *SignalWSController) handleSendMessage(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p protocol.SendMessagePayload
	if ctl.decode(conn, data, &p) {
		ctl.Orch.SendMessage(sid, p)
	}
}

func (ctl *SignalWSController) handleSendNotice(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p protocol.SendNoticePayload
	if ctl.decode(conn, data, &p) {
		ctl.Orch.SendNotice(sid, p)
	}
}

func (ctl *SignalWSController) handleUpdateMessages(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p protocol.UpdateMessagesPayload
	if ctl.decode(conn, data, &p) {
		ctl.Orch.UpdateMessages(sid, p)
	}
}
