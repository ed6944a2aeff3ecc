package orch

import (
	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/domain"
	"github.com/dkeye/clique/internal/metrics"
	"github.com/dkeye/clique/internal/protocol"
	"github.com/rs/zerolog/log"
)

// roomFor resolves the room bound to sid. Events from unbound sessions or
// for rooms that no longer exist are dropped.
func (o *Orchestrator) roomFor(sid core.SessionID, evt protocol.Type) (core.RoomService, core.MemberSession, bool) {
	roomID, session, ok := o.Registry.RoomOf(sid)
	if ok {
		if room, found := o.Rooms.Get(roomID); found && room.HasMember(sid) {
			return room, session, true
		}
	}
	metrics.EventsDropped.WithLabelValues("no_room").Inc()
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", string(evt)).Msg("event without room dropped")
	return nil, nil, false
}

func (o *Orchestrator) RequestVideo(sid core.SessionID, p protocol.RequestVideoPayload) {
	room, _, ok := o.roomFor(sid, protocol.RequestVideo)
	if !ok {
		return
	}
	o.handlePublish(room, room.Apply(func(st *domain.Room) core.Frame {
		st.SetVideo(p.Query)
		return encode(protocol.VideoFrame{Type: protocol.SetVideo, RespVideo: st.VideoID})
	}))
}

func (o *Orchestrator) EndVideo(sid core.SessionID, p protocol.EndVideoPayload) {
	room, _, ok := o.roomFor(sid, protocol.EndVideo)
	if !ok {
		return
	}
	o.handlePublish(room, room.Broadcast(encode(protocol.EndVideoFrame{Type: protocol.EndVideo, EndTime: p.EndTime})))
}

// SetVideoTime records the reported playback position without a broadcast.
func (o *Orchestrator) SetVideoTime(sid core.SessionID, p protocol.SetVideoTimePayload) {
	room, _, ok := o.roomFor(sid, protocol.SetVideoTime)
	if !ok {
		return
	}
	if p.CurrVideoTime == nil {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("set-video-time without time ignored")
		return
	}
	room.Apply(func(st *domain.Room) core.Frame {
		st.SetVideoTime(*p.CurrVideoTime)
		return nil
	})
}

func (o *Orchestrator) MemberCount(sid core.SessionID) {
	room, _, ok := o.roomFor(sid, protocol.GetMemberCount)
	if !ok {
		return
	}
	o.handlePublish(room, room.BroadcastCount(memberCountFrame))
}

func (o *Orchestrator) SetPlayState(sid core.SessionID, p protocol.SetPlayStatePayload) {
	room, _, ok := o.roomFor(sid, protocol.SetPlayState)
	if !ok {
		return
	}
	o.handlePublish(room, room.Broadcast(encode(protocol.PlayStateFrame{Type: protocol.SetPlayState, PlayVideo: p.PlayVideo})))
}

func (o *Orchestrator) NavigateTime(sid core.SessionID, p protocol.NavigateTimePayload) {
	room, _, ok := o.roomFor(sid, protocol.NavigateTime)
	if !ok {
		return
	}
	o.handlePublish(room, room.Broadcast(encode(protocol.NavigateTimeFrame{Type: protocol.NavigateTime, NewTime: p.NewTime})))
}

// SendMessage appends a chat line. Sender fields come from the bound
// member; the ones in the payload are ignored.
func (o *Orchestrator) SendMessage(sid core.SessionID, p protocol.SendMessagePayload) {
	room, session, ok := o.roomFor(sid, protocol.SendMessage)
	if !ok {
		return
	}
	sender := session.Meta()
	if sender == nil {
		return
	}
	o.handlePublish(room, room.Apply(func(st *domain.Room) core.Frame {
		msg := domain.NewChatMessage(sender, p.MsgContent)
		st.AppendMessage(msg)
		return encode(protocol.MessageFrame{
			Type:          protocol.SendMessage,
			SenderDisp:    msg.SenderDisp,
			SenderReal:    msg.SenderReal,
			SenderIsOwner: msg.SenderIsOwner,
			MsgContent:    msg.Content,
			Message:       msg,
			CurrMsgList:   st.MessagesSnapshot(),
		})
	}))
}

func (o *Orchestrator) SendNotice(sid core.SessionID, p protocol.SendNoticePayload) {
	room, _, ok := o.roomFor(sid, protocol.SendNotice)
	if !ok {
		return
	}
	o.handlePublish(room, room.Apply(func(st *domain.Room) core.Frame {
		notice := domain.NewNotice(p.MsgContent)
		st.AppendMessage(notice)
		return encode(protocol.MessageFrame{
			Type:        protocol.SendNotice,
			MsgContent:  notice.Content,
			Message:     notice,
			CurrMsgList: st.MessagesSnapshot(),
		})
	}))
}

// UpdateMessages replaces the room history; only the newest entries are kept.
func (o *Orchestrator) UpdateMessages(sid core.SessionID, p protocol.UpdateMessagesPayload) {
	room, _, ok := o.roomFor(sid, protocol.UpdateMessages)
	if !ok {
		return
	}
	room.Apply(func(st *domain.Room) core.Frame {
		st.ReplaceMessages(p.NewMsgList)
		return nil
	})
}
