package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/domain"
)

type nopSignal struct{}

func (nopSignal) TrySend(core.Frame) error { return nil }
func (nopSignal) Close()                   {}

func testSession(t *testing.T, sid, uid string) core.MemberSession {
	t.Helper()
	m, err := domain.NewMember(domain.UserID(uid), uid, "", false)
	if err != nil {
		t.Fatalf("Failed to create member: %v", err)
	}
	return core.NewMemberSession(core.SessionID(sid)).UpdateMeta(m).UpdateSignal(nopSignal{})
}

func TestGetOrCreateIdempotent(t *testing.T) {
	rooms := NewRoomManager()

	r1 := rooms.GetOrCreate("r1")
	r2 := rooms.GetOrCreate("r1")
	if r1 != r2 {
		t.Error("Should return same room instance")
	}
	if rooms.GetOrCreate("r2") == r1 {
		t.Error("Different ids should have different rooms")
	}
	if rooms.Len() != 2 {
		t.Errorf("Expected 2 rooms, got %d", rooms.Len())
	}
	if _, ok := rooms.Get("missing"); ok {
		t.Error("Get should not create rooms")
	}
}

func TestRemoveIfEmpty(t *testing.T) {
	rooms := NewRoomManager()
	room, _, err := rooms.Attach("r1", testSession(t, "s1", "alice"))
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if rooms.RemoveIfEmpty("r1") {
		t.Fatal("Room with members must not be removed")
	}
	room.RemoveMember("s1", nil)
	if !rooms.RemoveIfEmpty("r1") {
		t.Fatal("Empty room should be removed")
	}
	if _, ok := rooms.Get("r1"); ok {
		t.Error("Removed room still registered")
	}
	if rooms.RemoveIfEmpty("r1") {
		t.Error("Removing a missing room should report false")
	}
}

func TestAttachAfterRemoveCreatesFreshRoom(t *testing.T) {
	rooms := NewRoomManager()
	old, _, _ := rooms.Attach("r1", testSession(t, "s1", "alice"))
	old.RemoveMember("s1", nil)
	rooms.RemoveIfEmpty("r1")

	fresh, res, err := rooms.Attach("r1", testSession(t, "s2", "alice"))
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if fresh == old {
		t.Error("Expected a new room after removal")
	}
	if res.Restored {
		t.Error("Past members must not survive room removal")
	}
}

func TestAttachRacesRemove(t *testing.T) {
	rooms := NewRoomManager()
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		sid := fmt.Sprintf("s%d", i)
		sess := testSession(t, sid, sid)
		go func() {
			defer wg.Done()
			if _, _, err := rooms.Attach("busy", sess); err != nil {
				t.Errorf("Attach failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			rooms.RemoveIfEmpty("busy")
		}()
	}
	wg.Wait()

	room, ok := rooms.Get("busy")
	if !ok {
		t.Fatal("Room with members was removed")
	}
	if room.MemberCount() != 200 {
		t.Errorf("Expected 200 members, got %d", room.MemberCount())
	}
}

func TestStopRoomReturnsSessions(t *testing.T) {
	rooms := NewRoomManager()
	rooms.Attach("r1", testSession(t, "s1", "alice"))
	rooms.Attach("r1", testSession(t, "s2", "bob"))

	sessions := rooms.StopRoom("r1")
	if len(sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(sessions))
	}
	if len(rooms.List()) != 0 {
		t.Error("Stopped room still listed")
	}
}

func TestPolicyByName(t *testing.T) {
	if _, ok := PolicyByName("kick").(KickPolicy); !ok {
		t.Error("Expected KickPolicy")
	}
	if _, ok := PolicyByName("").(SimplePolicy); !ok {
		t.Error("Expected SimplePolicy by default")
	}
}
