package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/clique/internal/domain"
)

var errFull = errors.New("full")

type fakeSignal struct {
	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func (f *fakeSignal) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return errFull
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSignal) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func newSession(t *testing.T, sid, uid, name string, owner bool) (MemberSession, *fakeSignal) {
	t.Helper()
	m, err := domain.NewMember(domain.UserID(uid), name, "", owner)
	if err != nil {
		t.Fatalf("Failed to create member: %v", err)
	}
	sig := &fakeSignal{}
	return NewMemberSession(SessionID(sid)).UpdateMeta(m).UpdateSignal(sig), sig
}

func TestAddRemoveMember(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	alice, _ := newSession(t, "s1", "alice", "alice", true)

	if _, err := room.AddMember(alice); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if room.MemberCount() != 1 {
		t.Errorf("Expected 1 member, got %d", room.MemberCount())
	}

	m, _, ok := room.RemoveMember("s1", nil)
	if !ok || m.ID != "alice" {
		t.Fatalf("Expected to remove alice, got %+v ok=%v", m, ok)
	}
	if _, _, ok := room.RemoveMember("s1", nil); ok {
		t.Error("Second removal should be a no-op")
	}

	snap := room.Snapshot()
	if len(snap.PastMembers) != 1 || snap.PastMembers[0].ID != "alice" {
		t.Errorf("Expected alice in past members exactly once, got %+v", snap.PastMembers)
	}
}

func TestAnonymousSessionRejected(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	if _, err := room.AddMember(NewMemberSession("s1")); !errors.Is(err, ErrAnonymous) {
		t.Errorf("Expected ErrAnonymous, got %v", err)
	}
}

func TestRejoinRestoresPastIdentity(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	owner, _ := newSession(t, "s1", "alice", "alice", true)
	room.AddMember(owner)
	room.RemoveMember("s1", nil)

	again, _ := newSession(t, "s2", "alice", "someone-else", false)
	res, err := room.AddMember(again)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !res.Restored {
		t.Error("Expected identity to be restored")
	}
	if !res.Member.IsOwner || res.Member.DisplayName != "alice" {
		t.Errorf("Expected stored identity, got %+v", res.Member)
	}
	if again.Meta() != res.Member {
		t.Error("Session meta should point at the restored member")
	}
	if len(room.Snapshot().PastMembers) != 0 {
		t.Error("Past entry should be removed on rejoin")
	}
}

func TestApplyBroadcastsToAll(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	a, sa := newSession(t, "s1", "alice", "alice", true)
	b, sb := newSession(t, "s2", "bob", "bob", false)
	room.AddMember(a)
	room.AddMember(b)

	res := room.Apply(func(st *domain.Room) Frame {
		st.SetVideo("abc123")
		return Frame(`{"type":"set-video"}`)
	})
	if res.SendTo != 2 {
		t.Errorf("Expected 2 deliveries, got %d", res.SendTo)
	}
	if sa.count() != 1 || sb.count() != 1 {
		t.Errorf("Expected one frame each, got %d and %d", sa.count(), sb.count())
	}
	if id, _, _ := room.VideoState(); id != "abc123" {
		t.Errorf("Expected video abc123, got %q", id)
	}

	res = room.Apply(func(st *domain.Room) Frame {
		st.SetVideoTime(12.5)
		return nil
	})
	if res.SendTo != 0 || sa.count() != 1 {
		t.Error("Nil frame must not broadcast")
	}
}

func TestBroadcastReportsDropped(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	a, _ := newSession(t, "s1", "alice", "alice", true)
	b, sb := newSession(t, "s2", "bob", "bob", false)
	sb.full = true
	room.AddMember(a)
	room.AddMember(b)

	res := room.Broadcast(Frame("x"))
	if res.SendTo != 1 || len(res.Dropped) != 1 {
		t.Fatalf("Expected 1 sent and 1 dropped, got %+v", res)
	}
	if res.Dropped[0].ID() != "s2" {
		t.Errorf("Expected s2 dropped, got %s", res.Dropped[0].ID())
	}
}

func TestCloseIfEmpty(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	a, _ := newSession(t, "s1", "alice", "alice", true)
	room.AddMember(a)
	if room.CloseIfEmpty() {
		t.Fatal("Room with members must not close")
	}
	room.RemoveMember("s1", nil)
	if !room.CloseIfEmpty() {
		t.Fatal("Empty room should close")
	}
	if _, err := room.AddMember(a); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Expected ErrRoomClosed, got %v", err)
	}
}

func TestSessionsOf(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	a1, _ := newSession(t, "s1", "alice", "alice", true)
	a2, _ := newSession(t, "s2", "alice", "alice", true)
	b, _ := newSession(t, "s3", "bob", "bob", false)
	room.AddMember(a1)
	room.AddMember(a2)
	room.AddMember(b)

	got := room.SessionsOf("alice")
	if len(got) != 2 || got[0] != "s1" || got[1] != "s2" {
		t.Errorf("Unexpected sessions %v", got)
	}
	if err := room.SendTo("missing", Frame("x")); !errors.Is(err, ErrNotMember) {
		t.Errorf("Expected ErrNotMember, got %v", err)
	}
}

func TestConcurrentAppends(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	var wg sync.WaitGroup
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room.Apply(func(st *domain.Room) Frame {
				st.AppendMessage(domain.NewNotice("n"))
				return nil
			})
		}()
	}
	wg.Wait()
	if n := len(room.Snapshot().Messages); n != domain.MaxMessages {
		t.Errorf("Expected %d messages, got %d", domain.MaxMessages, n)
	}
}

func TestBroadcastCountSeesLiveMembers(t *testing.T) {
	room := NewRoomService(domain.NewRoom("r1"))
	alice, aSig := newSession(t, "s1", "alice", "alice", true)
	bob, bSig := newSession(t, "s2", "bob", "bob", false)
	_, _ = room.AddMember(alice)
	_, _ = room.AddMember(bob)

	var seen int
	res := room.BroadcastCount(func(n int) Frame {
		seen = n
		return Frame("count")
	})
	if seen != 2 {
		t.Errorf("Expected count 2, got %d", seen)
	}
	if res.SendTo != 2 || aSig.count() != 1 || bSig.count() != 1 {
		t.Errorf("Expected frame delivered to both members, got %+v", res)
	}
}
