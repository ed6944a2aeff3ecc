package core

import (
	"errors"

	"github.com/dkeye/clique/internal/domain"
)

var (
	ErrRoomClosed = errors.New("room closed")
	ErrNotMember  = errors.New("not a member")
	ErrAnonymous  = errors.New("session has no member identity")
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	SID         SessionID     `json:"sid"`
	ID          domain.UserID `json:"userId"`
	DisplayName string        `json:"dispName"`
	RealName    string        `json:"realName,omitempty"`
	IsOwner     bool          `json:"isOwner"`
}

// RoomSnapshot is a consistent copy of a room's state.
type RoomSnapshot struct {
	ID          domain.RoomID       `json:"id"`
	VideoID     string              `json:"videoId"`
	VideoTime   float64             `json:"videoTime"`
	TimeKnown   bool                `json:"timeKnown"`
	Members     []MemberDTO         `json:"members"`
	PastMembers []domain.PastMember `json:"pastMembers"`
	Messages    []domain.Message    `json:"messages"`
}

// JoinResult describes how a session entered a room.
type JoinResult struct {
	Member *domain.Member
	// Restored is set when the identity came from the past-member list.
	Restored bool
}

// Mutation runs inside the room lock. A non-nil return frame is
// broadcast to every member before the lock is released.
type Mutation func(st *domain.Room) Frame

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	MembersSnapshot() []MemberDTO
	Snapshot() RoomSnapshot
	HasMember(sid SessionID) bool
	SessionsOf(uid domain.UserID) []SessionID
	VideoState() (videoID string, videoTime float64, known bool)

	AddMember(ms MemberSession) (JoinResult, error)
	// RemoveMember drops the session and records its past identity.
	// The Mutation, when given, runs in the same critical section.
	RemoveMember(sid SessionID, after Mutation) (*domain.Member, PublishResult, bool)

	Apply(fn Mutation) PublishResult
	Broadcast(data Frame) PublishResult
	// BroadcastCount builds a frame from the live member count under the room lock.
	BroadcastCount(build func(members int) Frame) PublishResult
	SendTo(sid SessionID, data Frame) error

	// CloseIfEmpty marks an empty room closed; closed rooms reject members.
	CloseIfEmpty() bool
	// Close marks the room closed and hands back its sessions.
	Close() []MemberSession
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
}

type RoomManager interface {
	GetOrCreate(id domain.RoomID) RoomService
	Get(id domain.RoomID) (RoomService, bool)
	// Attach creates the room if needed and adds the session, atomically
	// with respect to RemoveIfEmpty.
	Attach(id domain.RoomID, ms MemberSession) (RoomService, JoinResult, error)
	RemoveIfEmpty(id domain.RoomID) bool
	List() []RoomInfo
	Len() int
	StopRoom(id domain.RoomID) []MemberSession
}
