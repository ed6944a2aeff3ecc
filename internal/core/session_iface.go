package core

import "github.com/dkeye/clique/internal/domain"

// SessionID identifies one client connection.
type SessionID string

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
// Meta is nil until the connection joins a room.
type MemberSession interface {
	ID() SessionID
	Meta() *domain.Member
	Signal() SignalConnection
	UpdateMeta(*domain.Member) MemberSession
	UpdateSignal(SignalConnection) MemberSession
}
