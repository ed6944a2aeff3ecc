package signal

import (
	"errors"

	"github.com/dkeye/clique/internal/app/orch"
	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/domain"
	"github.com/dkeye/clique/internal/metrics"
	"github.com/dkeye/clique/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p protocol.JoinRoomPayload
	if !ctl.decode(conn, data, &p) {
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", p.RoomID).Msg("join")
	err := ctl.Orch.Join(sid, p)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrAnonymous):
		metrics.EventsDropped.WithLabelValues("anonymous").Inc()
		ctl.sendJSON(conn, protocol.RedirectFrame{Type: protocol.Redirect, Location: ctl.opts.AnonymousRedirect})
	case errors.Is(err, orch.ErrEmptyRoomID):
		ctl.sendError(conn, "empty_room_id")
	case errors.Is(err, domain.ErrNameTooLong), errors.Is(err, domain.ErrUserIDTooLong):
		ctl.sendError(conn, "invalid_name")
	default:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join failed")
		ctl.sendError(conn, "join_failed")
	}
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.Orch.Leave(sid)
}
