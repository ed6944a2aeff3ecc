package orch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/domain"
	"github.com/dkeye/clique/internal/metrics"
	"github.com/dkeye/clique/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Join binds sid to a room, leaving any room it is already in. A payload
// without a display name yields core.ErrAnonymous and binds nothing.
func (o *Orchestrator) Join(sid core.SessionID, p protocol.JoinRoomPayload) error {
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return ErrUnknownSession
	}
	roomID := domain.RoomID(strings.TrimSpace(p.RoomID))
	if roomID == "" {
		return ErrEmptyRoomID
	}
	member, err := domain.NewMember(domain.UserID(p.UserID), p.DispName, p.RealName, p.IsOwner)
	if errors.Is(err, domain.ErrDisplayNameEmpty) {
		return core.ErrAnonymous
	}
	if err != nil {
		return err
	}

	if prev, _, ok := o.Registry.RoomOf(sid); ok {
		o.Leave(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(prev)).Msg("left previous room")
	}

	session.UpdateMeta(member)
	room, res, err := o.Rooms.Attach(roomID, session)
	if err != nil {
		return err
	}
	metrics.MembersActive.Inc()
	o.Registry.UpdateRoom(sid, roomID)
	// An eviction between Attach and UpdateRoom misses the binding.
	if !room.HasMember(sid) {
		o.Registry.RemoveRoom(sid, roomID)
		o.Registry.Cancel(sid)
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("room evicted during join")
		return core.ErrRoomClosed
	}

	joined := res.Member
	o.handlePublish(room, room.Apply(func(st *domain.Room) core.Frame {
		notice := domain.JoinNotice(joined)
		st.AppendMessage(notice)
		return encode(protocol.MessageFrame{
			Type:        protocol.SendNotice,
			MsgContent:  notice.Content,
			Message:     notice,
			CurrMsgList: st.MessagesSnapshot(),
		})
	}))
	o.handlePublish(room, room.Apply(func(st *domain.Room) core.Frame {
		return encode(protocol.MessagesFrame{Type: protocol.SetMessages, CurrMsgList: st.MessagesSnapshot()})
	}))
	o.handlePublish(room, room.BroadcastCount(memberCountFrame))
	o.handlePublish(room, room.Broadcast(encode(protocol.Bare{Type: protocol.GetVideoTime})))

	if o.Roster != nil {
		o.Roster.Enter(roomID, joined.Past())
	}
	o.spawn(func(ctx context.Context) { o.reconcile(ctx, roomID, sid) })

	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).
		Str("user", string(joined.ID)).Bool("restored", res.Restored).Msg("joined room")
	return nil
}

// Leave runs leave semantics for sid's current room. It reports false when
// sid was not in a room.
func (o *Orchestrator) Leave(sid core.SessionID) bool {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return false
	}
	return o.leave(sid, roomID)
}

func (o *Orchestrator) leave(sid core.SessionID, roomID domain.RoomID) bool {
	o.Registry.RemoveRoom(sid, roomID)
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return false
	}

	var leaving *domain.Member
	if session, ok := o.Registry.GetSession(sid); ok {
		leaving = session.Meta()
	}
	member, res, removed := room.RemoveMember(sid, func(st *domain.Room) core.Frame {
		if leaving == nil {
			return nil
		}
		notice := domain.LeaveNotice(leaving)
		st.AppendMessage(notice)
		return encode(protocol.MessageFrame{
			Type:        protocol.SendNotice,
			MsgContent:  notice.Content,
			Message:     notice,
			CurrMsgList: st.MessagesSnapshot(),
		})
	})
	if !removed {
		return false
	}
	o.handlePublish(room, res)
	o.handlePublish(room, room.BroadcastCount(memberCountFrame))
	metrics.MembersActive.Dec()

	if o.Roster != nil && member != nil {
		o.Roster.Leave(roomID, member.ID)
	}
	o.armGrace(roomID)

	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("left room")
	return true
}

// OnDisconnect is called once by the gateway when a connection ends.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Leave(sid)
	o.Registry.Unbind(sid)
}

// LeaveMember removes every session of userID from roomID with leave
// semantics and closes their connections. It returns how many sessions
// were removed; unknown rooms and repeated calls yield 0.
func (o *Orchestrator) LeaveMember(roomID domain.RoomID, userID domain.UserID) int {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return 0
	}
	n := 0
	for _, sid := range room.SessionsOf(userID) {
		if o.leave(sid, roomID) {
			n++
		}
		o.Registry.Cancel(sid)
	}
	log.Info().Str("module", "orch").Str("room", string(roomID)).Str("user", string(userID)).Int("sessions", n).Msg("member removed by request")
	return n
}

// EvictRoom drops a room immediately and disconnects its members.
func (o *Orchestrator) EvictRoom(roomID domain.RoomID) bool {
	sessions := o.Rooms.StopRoom(roomID)
	for _, snap := range o.Registry.MembersOfRoom(roomID) {
		o.Registry.RemoveRoom(snap.SID, roomID)
		o.Registry.Cancel(snap.SID)
	}
	for _, s := range sessions {
		metrics.MembersActive.Dec()
		if m := s.Meta(); m != nil && o.Roster != nil {
			o.Roster.Leave(roomID, m.ID)
		}
	}
	if sessions == nil {
		return false
	}
	log.Info().Str("module", "orch").Str("room", string(roomID)).Int("members", len(sessions)).Msg("room evicted")
	return true
}

// armGrace schedules the empty-room check. It is never cancelled by a
// join; a join only makes the check fail.
func (o *Orchestrator) armGrace(roomID domain.RoomID) {
	grace := o.opts.GracePeriod
	o.spawn(func(ctx context.Context) {
		t := time.NewTimer(grace)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if o.Rooms.RemoveIfEmpty(roomID) {
			log.Info().Str("module", "orch").Str("room", string(roomID)).Msg("room removed after grace period")
		}
	})
}

func memberCountFrame(n int) core.Frame {
	return encode(protocol.MemberCountFrame{Type: protocol.GetMemberCount, UserCount: n})
}
