package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/metrics"
	"github.com/dkeye/clique/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// unblocks readPump, which owns the disconnect
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("ping failed")
				c.Close()
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Orch.OnDisconnect(sid)
		c.Close()
		if ctl.limiter != nil {
			ctl.limiter.Forget(sid)
		}
		metrics.ConnectionsActive.Dec()
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(sid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.sendError(c, "bad_payload")
		metrics.EventsDropped.WithLabelValues("bad_payload").Inc()
		return
	}
	if ctl.limiter != nil && !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", string(env.Type)).Msg("rate limited")
		metrics.EventsDropped.WithLabelValues("rate_limit").Inc()
		return
	}
	metrics.EventsTotal.WithLabelValues(string(env.Type)).Inc()

	switch env.Type {
	case protocol.JoinRoom:
		ctl.handleJoin(sid, c, data)
	case protocol.LeaveRoom:
		ctl.handleLeave(sid)
	case protocol.RequestVideo:
		ctl.handleRequestVideo(sid, c, data)
	case protocol.EndVideo:
		ctl.handleEndVideo(sid, c, data)
	case protocol.SetVideoTime:
		ctl.handleSetVideoTime(sid, c, data)
	case protocol.NavigateTime:
		ctl.handleNavigateTime(sid, c, data)
	case protocol.SetPlayState:
		ctl.handleSetPlayState(sid, c, data)
	case protocol.GetMemberCount:
		ctl.Orch.MemberCount(sid)
	case protocol.SendMessage:
		ctl.handleSendMessage(sid, c, data)
	case protocol.SendNotice:
		ctl.handleSendNotice(sid, c, data)
	case protocol.UpdateMessages:
		ctl.handleUpdateMessages(sid, c, data)
	case protocol.Ping:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", string(env.Type)).Msg("unknown signal")
	}
}

// decode unmarshals an event payload, answering bad_payload on failure.
func (ctl *SignalWSController) decode(c *WsSignalConn, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad payload")
		ctl.sendError(c, "bad_payload")
		metrics.EventsDropped.WithLabelValues("bad_payload").Inc()
		return false
	}
	return true
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("sendJSON dropped")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, code string) {
	ctl.sendJSON(c, protocol.ErrorFrame{Type: protocol.Error, Error: code})
}
