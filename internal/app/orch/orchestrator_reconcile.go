package orch

import (
	"context"
	"time"

	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/domain"
	"github.com/dkeye/clique/internal/metrics"
	"github.com/dkeye/clique/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	reconcileSynced     = "synced"
	reconcileMemberGone = "member_gone"
	reconcileGaveUp     = "gave_up"
	reconcileClosed     = "closed"
)

// reconcile polls the room until its playback time is known and then sends
// set-video to the joiner alone. The video id is read on the same tick.
func (o *Orchestrator) reconcile(ctx context.Context, roomID domain.RoomID, sid core.SessionID) {
	ticker := time.NewTicker(o.opts.ReconcileInterval)
	defer ticker.Stop()

	attempts := 0
	reason := reconcileClosed
	defer func() {
		metrics.ReconcileStopped.WithLabelValues(reason).Inc()
		if o.reconcileDone != nil {
			o.reconcileDone(sid, reason)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		attempts++

		room, ok := o.Rooms.Get(roomID)
		if !ok || !room.HasMember(sid) {
			reason = reconcileMemberGone
			log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("sid", string(sid)).Msg("reconcile stopped, member gone")
			return
		}

		videoID, videoTime, known := room.VideoState()
		if known {
			frame := encode(protocol.VideoFrame{Type: protocol.SetVideo, RespVideo: videoID, RespVideoTime: &videoTime})
			if err := room.SendTo(sid, frame); err != nil {
				log.Warn().Err(err).Str("module", "orch").Str("room", string(roomID)).Str("sid", string(sid)).Msg("reconcile send failed")
			}
			reason = reconcileSynced
			metrics.ReconcileAttempts.Observe(float64(attempts))
			log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("sid", string(sid)).
				Int("attempts", attempts).Float64("time", videoTime).Msg("joiner synced")
			return
		}

		if limit := o.opts.ReconcileMaxAttempts; limit > 0 && attempts >= limit {
			reason = reconcileGaveUp
			log.Info().Str("module", "orch").Str("room", string(roomID)).Str("sid", string(sid)).Int("attempts", attempts).Msg("reconcile gave up")
			return
		}
	}
}
