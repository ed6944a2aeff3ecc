package domain

type RoomID string

// Room is the shared, mutable state of one viewing session.
// It is not safe for concurrent use; core.RoomService guards it.
type Room struct {
	ID          RoomID
	VideoID     string
	VideoTime   float64
	TimeKnown   bool
	Messages    []Message
	PastMembers []PastMember
}

func NewRoom(id RoomID) *Room {
	return &Room{
		ID:       id,
		Messages: make([]Message, 0, MaxMessages),
	}
}

// AppendMessage evicts the oldest message first when the history is full.
func (r *Room) AppendMessage(m Message) {
	if len(r.Messages) >= MaxMessages {
		n := copy(r.Messages, r.Messages[len(r.Messages)-MaxMessages+1:])
		r.Messages = r.Messages[:n]
	}
	r.Messages = append(r.Messages, m)
}

// ReplaceMessages swaps the history wholesale, keeping the newest MaxMessages.
func (r *Room) ReplaceMessages(list []Message) {
	if len(list) > MaxMessages {
		list = list[len(list)-MaxMessages:]
	}
	r.Messages = append(make([]Message, 0, MaxMessages), list...)
}

func (r *Room) MessagesSnapshot() []Message {
	out := make([]Message, len(r.Messages))
	copy(out, r.Messages)
	return out
}

func (r *Room) SetVideo(videoID string) {
	r.VideoID = videoID
}

func (r *Room) SetVideoTime(t float64) {
	r.VideoTime = t
	r.TimeKnown = true
}

func (r *Room) HasPast(id UserID) bool {
	for _, p := range r.PastMembers {
		if p.ID == id {
			return true
		}
	}
	return false
}

// RememberPast records p unless its ID is already present.
func (r *Room) RememberPast(p PastMember) bool {
	if r.HasPast(p.ID) {
		return false
	}
	r.PastMembers = append(r.PastMembers, p)
	return true
}

// ReclaimPast removes and returns the past record for id.
func (r *Room) ReclaimPast(id UserID) (PastMember, bool) {
	for i, p := range r.PastMembers {
		if p.ID == id {
			r.PastMembers = append(r.PastMembers[:i], r.PastMembers[i+1:]...)
			return p, true
		}
	}
	return PastMember{}, false
}

func (r *Room) PastSnapshot() []PastMember {
	out := make([]PastMember, len(r.PastMembers))
	copy(out, r.PastMembers)
	return out
}
