package core

import (
	"sync"

	"github.com/dkeye/clique/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	mu     sync.RWMutex
	state  *domain.Room
	bySID  map[SessionID]MemberSession
	order  []SessionID
	closed bool
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		state: room,
		bySID: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.state.ID }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) HasMember(sid SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySID[sid]
	return ok
}

func (r *roomImpl) SessionsOf(uid domain.UserID) []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SessionID
	for _, sid := range r.order {
		if m := r.bySID[sid].Meta(); m != nil && m.ID == uid {
			out = append(out, sid)
		}
	}
	return out
}

func (r *roomImpl) VideoState() (string, float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.VideoID, r.state.VideoTime, r.state.TimeKnown
}

func (r *roomImpl) AddMember(ms MemberSession) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return JoinResult{}, ErrRoomClosed
	}

	res := JoinResult{Member: ms.Meta()}
	if res.Member == nil {
		return JoinResult{}, ErrAnonymous
	}
	if past, ok := r.state.ReclaimPast(res.Member.ID); ok {
		res.Member = past.Restore()
		res.Restored = true
		ms.UpdateMeta(res.Member)
	}
	if _, dup := r.bySID[ms.ID()]; !dup {
		r.order = append(r.order, ms.ID())
	}
	r.bySID[ms.ID()] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.state.ID)).Str("sid", string(ms.ID())).
		Str("user", string(res.Member.ID)).Bool("restored", res.Restored).Msg("member added")
	return res, nil
}

func (r *roomImpl) RemoveMember(sid SessionID, after Mutation) (*domain.Member, PublishResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.bySID[sid]
	if !ok {
		return nil, PublishResult{}, false
	}
	delete(r.bySID, sid)
	for i, s := range r.order {
		if s == sid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	m := ms.Meta()
	if m != nil {
		r.state.RememberPast(m.Past())
	}
	log.Info().Str("module", "core.room").Str("room", string(r.state.ID)).Str("sid", string(sid)).Msg("member removed")

	var res PublishResult
	if after != nil {
		if frame := after(r.state); frame != nil {
			res = r.broadcastLocked(frame)
		}
	}
	return m, res, true
}

func (r *roomImpl) Apply(fn Mutation) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame := fn(r.state)
	if frame == nil {
		return PublishResult{}
	}
	return r.broadcastLocked(frame)
}

// Broadcast takes the write lock so every member sees one room's frames
// in the same order.
func (r *roomImpl) Broadcast(data Frame) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcastLocked(data)
}

func (r *roomImpl) BroadcastCount(build func(members int) Frame) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame := build(len(r.bySID))
	if frame == nil {
		return PublishResult{}
	}
	return r.broadcastLocked(frame)
}

func (r *roomImpl) broadcastLocked(data Frame) PublishResult {
	res := PublishResult{}
	for _, sid := range r.order {
		m := r.bySID[sid]
		sc := m.Signal()
		if sc == nil {
			continue
		}
		if err := sc.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.state.ID)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) SendTo(sid SessionID, data Frame) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.bySID[sid]
	if !ok {
		return ErrNotMember
	}
	sc := m.Signal()
	if sc == nil {
		return ErrNotMember
	}
	return sc.TrySend(data)
}

func (r *roomImpl) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bySID) > 0 {
		return false
	}
	r.closed = true
	return true
}

func (r *roomImpl) Close() []MemberSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	out := make([]MemberSession, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, r.bySID[sid])
	}
	r.bySID = make(map[SessionID]MemberSession)
	r.order = nil
	return out
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.membersLocked()
}

func (r *roomImpl) membersLocked() []MemberDTO {
	out := make([]MemberDTO, 0, len(r.bySID))
	for _, sid := range r.order {
		u := r.bySID[sid].Meta()
		if u == nil {
			continue
		}
		out = append(out, MemberDTO{SID: sid, ID: u.ID, DisplayName: u.DisplayName, RealName: u.RealName, IsOwner: u.IsOwner})
	}
	return out
}

func (r *roomImpl) Snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomSnapshot{
		ID:          r.state.ID,
		VideoID:     r.state.VideoID,
		VideoTime:   r.state.VideoTime,
		TimeKnown:   r.state.TimeKnown,
		Members:     r.membersLocked(),
		PastMembers: r.state.PastSnapshot(),
		Messages:    r.state.MessagesSnapshot(),
	}
}
