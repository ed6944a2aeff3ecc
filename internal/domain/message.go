package domain

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

const MaxMessages = 100

// Message is a chat line or a system notice. Immutable once appended.
type Message struct {
	Notice        bool   `json:"notice"`
	Content       string `json:"content"`
	SenderDisp    string `json:"senderDisp,omitempty"`
	SenderReal    string `json:"senderReal,omitempty"`
	SenderIsOwner bool   `json:"senderIsOwner,omitempty"`
	// Key orders and deduplicates messages; ULIDs sort by creation time.
	Key    string `json:"key"`
	SentAt int64  `json:"sentAt"`
}

func newKey() (string, int64) {
	id := ulid.Make()
	return id.String(), int64(id.Time())
}

func NewChatMessage(sender *Member, content string) Message {
	key, at := newKey()
	return Message{
		Content:       content,
		SenderDisp:    sender.DisplayName,
		SenderReal:    sender.RealName,
		SenderIsOwner: sender.IsOwner,
		Key:           key,
		SentAt:        at,
	}
}

func NewNotice(content string) Message {
	key, at := newKey()
	return Message{Notice: true, Content: content, Key: key, SentAt: at}
}

func JoinNotice(m *Member) Message {
	return NewNotice(fmt.Sprintf("*%s* has joined the room.", m.Label()))
}

func LeaveNotice(m *Member) Message {
	return NewNotice(fmt.Sprintf("*%s* has left the room.", m.Label()))
}
