package app

import (
	"context"
	"testing"

	"github.com/dkeye/clique/internal/core"
)

func TestRegistryBinding(t *testing.T) {
	reg := NewRegistry()
	sess := testSession(t, "s1", "alice")
	ctx, cancel := context.WithCancel(context.Background())
	reg.BindSignal("s1", sess, cancel)

	if _, _, ok := reg.RoomOf("s1"); ok {
		t.Error("Fresh session should have no room")
	}
	if !reg.UpdateRoom("s1", "r1") {
		t.Fatal("UpdateRoom failed")
	}
	room, got, ok := reg.RoomOf("s1")
	if !ok || room != "r1" || got != sess {
		t.Errorf("Unexpected binding %s %v %v", room, got, ok)
	}

	reg.RemoveRoom("s1", "other")
	if _, _, ok := reg.RoomOf("s1"); !ok {
		t.Error("RemoveRoom for another room must keep the binding")
	}
	reg.RemoveRoom("s1", "r1")
	if _, _, ok := reg.RoomOf("s1"); ok {
		t.Error("Binding should be cleared")
	}

	if !reg.Cancel("s1") {
		t.Error("Cancel should find the session")
	}
	if ctx.Err() == nil {
		t.Error("Session context should be cancelled")
	}

	reg.Unbind("s1")
	if _, ok := reg.GetSession("s1"); ok {
		t.Error("Session still registered after Unbind")
	}
	if reg.Cancel(core.SessionID("s1")) {
		t.Error("Cancel on unbound session should report false")
	}
}

func TestMembersOfRoom(t *testing.T) {
	reg := NewRegistry()
	for _, sid := range []string{"s1", "s2", "s3"} {
		reg.BindSignal(core.SessionID(sid), testSession(t, sid, sid), nil)
	}
	reg.UpdateRoom("s1", "r1")
	reg.UpdateRoom("s2", "r1")
	reg.UpdateRoom("s3", "r2")

	if got := len(reg.MembersOfRoom("r1")); got != 2 {
		t.Errorf("Expected 2 sessions in r1, got %d", got)
	}
	if reg.Len() != 3 {
		t.Errorf("Expected 3 sessions, got %d", reg.Len())
	}
}
