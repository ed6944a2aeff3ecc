package domain

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppendMessageBounded(t *testing.T) {
	r := NewRoom("r1")
	for i := 0; i < MaxMessages; i++ {
		r.AppendMessage(NewNotice(fmt.Sprintf("m%d", i)))
	}
	if len(r.Messages) != MaxMessages {
		t.Fatalf("Expected %d messages, got %d", MaxMessages, len(r.Messages))
	}

	r.AppendMessage(NewNotice("m100"))
	if len(r.Messages) != MaxMessages {
		t.Fatalf("Expected %d messages after overflow, got %d", MaxMessages, len(r.Messages))
	}
	if r.Messages[0].Content != "m1" {
		t.Errorf("Expected oldest message to be evicted, first is %q", r.Messages[0].Content)
	}
	if r.Messages[MaxMessages-1].Content != "m100" {
		t.Errorf("Expected newest message last, got %q", r.Messages[MaxMessages-1].Content)
	}
}

func TestAppendMessageNeverExceedsLimit(t *testing.T) {
	r := NewRoom("r1")
	for i := 0; i < 3*MaxMessages+7; i++ {
		r.AppendMessage(NewNotice("x"))
		if len(r.Messages) > MaxMessages {
			t.Fatalf("History grew to %d after %d appends", len(r.Messages), i+1)
		}
	}
}

func TestMessageKeysIncrease(t *testing.T) {
	prev := ""
	for i := 0; i < 50; i++ {
		m := NewNotice("n")
		if m.Key <= prev {
			t.Fatalf("Key %q not greater than previous %q", m.Key, prev)
		}
		prev = m.Key
	}
}

func TestReplaceMessagesKeepsNewest(t *testing.T) {
	r := NewRoom("r1")
	list := make([]Message, 0, MaxMessages+20)
	for i := 0; i < MaxMessages+20; i++ {
		list = append(list, Message{Content: fmt.Sprintf("m%d", i)})
	}
	r.ReplaceMessages(list)
	if len(r.Messages) != MaxMessages {
		t.Fatalf("Expected %d messages, got %d", MaxMessages, len(r.Messages))
	}
	if r.Messages[0].Content != "m20" {
		t.Errorf("Expected first kept message m20, got %q", r.Messages[0].Content)
	}

	r.ReplaceMessages(nil)
	if len(r.Messages) != 0 {
		t.Errorf("Expected empty history, got %d", len(r.Messages))
	}
}

func TestPastMembersDeduplicated(t *testing.T) {
	r := NewRoom("r1")
	bob := PastMember{ID: "bob", DisplayName: "bob"}

	if !r.RememberPast(bob) {
		t.Fatal("First remember should record the member")
	}
	if r.RememberPast(bob) {
		t.Error("Second remember should be a no-op")
	}
	if len(r.PastMembers) != 1 {
		t.Fatalf("Expected 1 past member, got %d", len(r.PastMembers))
	}

	got, ok := r.ReclaimPast("bob")
	if !ok || got.ID != "bob" {
		t.Fatalf("Expected to reclaim bob, got %+v ok=%v", got, ok)
	}
	if r.HasPast("bob") {
		t.Error("Reclaimed member should be gone from past members")
	}
	if _, ok := r.ReclaimPast("bob"); ok {
		t.Error("Reclaiming twice should fail")
	}
}

func TestNewMemberValidation(t *testing.T) {
	if _, err := NewMember("u1", "   ", "", false); err != ErrDisplayNameEmpty {
		t.Errorf("Expected ErrDisplayNameEmpty, got %v", err)
	}
	if _, err := NewMember("u1", strings.Repeat("a", MaxNameLen+1), "", false); err != ErrNameTooLong {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
	m, err := NewMember("u1", " alice ", "Alice", true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if m.DisplayName != "alice" {
		t.Errorf("Expected trimmed display name, got %q", m.DisplayName)
	}
	if m.Label() != "alice (Alice)" {
		t.Errorf("Unexpected label %q", m.Label())
	}
	if p := m.Past(); p.Restore().IsOwner != true {
		t.Error("Owner flag lost through past record")
	}
}

func TestNotices(t *testing.T) {
	m := &Member{ID: "b", DisplayName: "bob"}
	if got := JoinNotice(m); !got.Notice || got.Content != "*bob* has joined the room." {
		t.Errorf("Unexpected join notice %+v", got)
	}
	if got := LeaveNotice(m); got.Content != "*bob* has left the room." {
		t.Errorf("Unexpected leave notice %q", got.Content)
	}
}
