package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/clique/internal/domain"
	"github.com/dkeye/clique/internal/roster/mocks"
	"go.uber.org/mock/gomock"
)

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for roster call")
	}
}

func TestNotifierForwardsEnterAndLeave(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	member := domain.PastMember{ID: "u1", DisplayName: "Ann", RealName: "Ann Lee"}
	done := make(chan struct{}, 2)

	gomock.InOrder(
		store.EXPECT().Enter(gomock.Any(), domain.RoomID("r1"), member).
			DoAndReturn(func(context.Context, domain.RoomID, domain.PastMember) error {
				done <- struct{}{}
				return nil
			}),
		store.EXPECT().Leave(gomock.Any(), domain.RoomID("r1"), domain.UserID("u1")).
			DoAndReturn(func(context.Context, domain.RoomID, domain.UserID) error {
				done <- struct{}{}
				return nil
			}),
	)

	n := NewNotifier(store, 8, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Enter("r1", member)
	n.Leave("r1", "u1")

	waitFor(t, done)
	waitFor(t, done)
}

func TestNotifierDoesNotRetryFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	done := make(chan struct{}, 1)
	store.EXPECT().Leave(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.RoomID, domain.UserID) error {
			done <- struct{}{}
			return errors.New("boom")
		}).Times(1)

	n := NewNotifier(store, 8, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Leave("r1", "u1")
	waitFor(t, done)

	// give a retry the chance to happen; gomock fails on a second call
	time.Sleep(50 * time.Millisecond)
}

func TestNotifierDropsWhenQueueFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	n := NewNotifier(store, 1, time.Second)
	n.Leave("r1", "u1")
	n.Leave("r1", "u2")

	if got := len(n.queue); got != 1 {
		t.Fatalf("Expected 1 queued job, got %d", got)
	}
}

func TestNotifierAppliesTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	done := make(chan struct{}, 1)
	store.EXPECT().Enter(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ domain.RoomID, _ domain.PastMember) error {
			<-ctx.Done()
			done <- struct{}{}
			return ctx.Err()
		})

	n := NewNotifier(store, 1, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Enter("r1", domain.PastMember{ID: "u1", DisplayName: "Ann"})
	waitFor(t, done)
}
