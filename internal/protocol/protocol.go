// Package protocol holds the websocket event vocabulary shared by the
// signal adapter (decoding) and the orchestrator (encoding).
package protocol

import (
	"encoding/json"

	"github.com/dkeye/clique/internal/domain"
)

// Type is the "type" discriminator of every frame.
type Type string

const (
	JoinRoom       Type = "join-room"
	LeaveRoom      Type = "leave-room"
	RequestVideo   Type = "request-video"
	EndVideo       Type = "end-video"
	SetVideo       Type = "set-video"
	SendMessage    Type = "send-message"
	SetMessages    Type = "set-messages"
	UpdateMessages Type = "update-messages"
	GetVideoTime   Type = "get-video-time"
	SetVideoTime   Type = "set-video-time"
	NavigateTime   Type = "navigate-time"
	GetMemberCount Type = "get-member-count"
	SetPlayState   Type = "set-play-state"
	SendNotice     Type = "send-notice"
	Ping           Type = "ping"
	Pong           Type = "pong"
	Redirect       Type = "redirect"
	Error          Type = "error"
)

// Envelope is decoded first to pick a handler.
type Envelope struct {
	Type Type `json:"type"`
}

// Client → server payloads.

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	RealName string `json:"realName"`
	DispName string `json:"dispName"`
	IsOwner  bool   `json:"isOwner"`
}

type RequestVideoPayload struct {
	Query string `json:"query"`
}

type EndVideoPayload struct {
	EndTime float64 `json:"endTime"`
}

type SetVideoTimePayload struct {
	CurrVideoTime *float64 `json:"currVideoTime"`
}

type NavigateTimePayload struct {
	NewTime float64 `json:"newTime"`
}

type SetPlayStatePayload struct {
	PlayVideo bool `json:"playVideo"`
}

type SendMessagePayload struct {
	SenderDisp    string `json:"senderDisp"`
	SenderReal    string `json:"senderReal"`
	SenderIsOwner bool   `json:"senderIsOwner"`
	MsgContent    string `json:"msgContent"`
}

type SendNoticePayload struct {
	MsgContent string `json:"msgContent"`
}

type UpdateMessagesPayload struct {
	NewMsgList []domain.Message `json:"newMsgList"`
}

// Server → client frames.

type VideoFrame struct {
	Type          Type     `json:"type"`
	RespVideo     string   `json:"respVideo"`
	RespVideoTime *float64 `json:"respVideoTime,omitempty"`
}

type EndVideoFrame struct {
	Type    Type    `json:"type"`
	EndTime float64 `json:"endTime"`
}

type MemberCountFrame struct {
	Type      Type `json:"type"`
	UserCount int  `json:"userCount"`
}

type PlayStateFrame struct {
	Type      Type `json:"type"`
	PlayVideo bool `json:"playVideo"`
}

type NavigateTimeFrame struct {
	Type    Type    `json:"type"`
	NewTime float64 `json:"newTime"`
}

type MessageFrame struct {
	Type          Type             `json:"type"`
	SenderDisp    string           `json:"senderDisp,omitempty"`
	SenderReal    string           `json:"senderReal,omitempty"`
	SenderIsOwner bool             `json:"senderIsOwner,omitempty"`
	MsgContent    string           `json:"msgContent"`
	Message       domain.Message   `json:"message"`
	CurrMsgList   []domain.Message `json:"currMsgList"`
}

type MessagesFrame struct {
	Type        Type             `json:"type"`
	CurrMsgList []domain.Message `json:"currMsgList"`
}

type RedirectFrame struct {
	Type     Type   `json:"type"`
	Location string `json:"location"`
}

type ErrorFrame struct {
	Type  Type   `json:"type"`
	Error string `json:"error"`
}

// Bare is a frame carrying only its type (get-video-time, pong).
type Bare struct {
	Type Type `json:"type"`
}

// Encode marshals a frame; the structs above cannot fail to marshal
// except for NaN/Inf floats, which are reported to the caller.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
