package roster

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dkeye/clique/internal/domain"
)

func domainMember(id string) domain.PastMember {
	return domain.PastMember{ID: domain.UserID(id), DisplayName: "disp-" + id, RealName: "real-" + id}
}

func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "clique-roster-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	s, err := NewSQLiteStore(filepath.Join(tmpDir, "roster.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create database: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

func TestSQLiteEnterLeave(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.Enter(ctx, "r1", domainMember("u1")); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if err := s.Enter(ctx, "r1", domainMember("u2")); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if err := s.Leave(ctx, "r1", "u1"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	present, past, err := s.Members(ctx, "r1")
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(present) != 1 || present[0].ID != "u2" {
		t.Errorf("Expected u2 present, got %+v", present)
	}
	if len(past) != 1 || past[0].ID != "u1" || past[0].DisplayName != "disp-u1" {
		t.Errorf("Expected u1 past, got %+v", past)
	}
}

func TestSQLiteReenterClearsPast(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_ = s.Enter(ctx, "r1", domainMember("u1"))
	_ = s.Leave(ctx, "r1", "u1")
	_ = s.Enter(ctx, "r1", domainMember("u1"))

	present, past, err := s.Members(ctx, "r1")
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(present) != 1 || len(past) != 0 {
		t.Errorf("Expected 1 present / 0 past, got %d / %d", len(present), len(past))
	}
}

func TestSQLiteLeaveUnknownIsNoop(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.Leave(ctx, "r1", "ghost"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	present, past, _ := s.Members(ctx, "r1")
	if len(present)+len(past) != 0 {
		t.Errorf("Expected empty roster, got %+v %+v", present, past)
	}
}
