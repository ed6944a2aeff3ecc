package app

import (
	"strings"

	"github.com/dkeye/clique/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
}

// SimplePolicy drops the frame for the slow member and keeps it connected.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction {
	return DropFrame
}

// KickPolicy disconnects members that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction {
	return KickMember
}

// PolicyByName maps the slow_consumer_policy config value.
func PolicyByName(name string) Policy {
	switch strings.ToLower(name) {
	case "kick":
		return KickPolicy{}
	default:
		return SimplePolicy{}
	}
}
