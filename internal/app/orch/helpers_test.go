package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/clique/internal/app"
	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/protocol"
	"github.com/dkeye/clique/internal/roster"
)

var errFull = errors.New("send queue full")

// recorder is a SignalConnection that keeps decoded frames.
type recorder struct {
	mu     sync.Mutex
	frames []map[string]any
	full   bool
}

func (r *recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return errFull
	}
	var m map[string]any
	if err := json.Unmarshal(f, &m); err != nil {
		return err
	}
	r.frames = append(r.frames, m)
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) ofType(t protocol.Type) []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []map[string]any
	for _, f := range r.frames {
		if f["type"] == string(t) {
			out = append(out, f)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) last(t protocol.Type) map[string]any {
	all := r.ofType(t)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

type conn struct {
	sid      core.SessionID
	rec      *recorder
	canceled atomic.Bool
}

func newTestOrchestrator(t *testing.T, notifier *roster.Notifier, opts Options) *Orchestrator {
	t.Helper()
	if opts.GracePeriod == 0 {
		opts.GracePeriod = 30 * time.Millisecond
	}
	if opts.ReconcileInterval == 0 {
		opts.ReconcileInterval = 10 * time.Millisecond
	}
	o := New(app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{}, notifier, opts)
	t.Cleanup(o.Close)
	return o
}

func connect(o *Orchestrator, sid string) *conn {
	c := &conn{sid: core.SessionID(sid), rec: &recorder{}}
	sess := core.NewMemberSession(c.sid).UpdateSignal(c.rec)
	o.Registry.BindSignal(c.sid, sess, func() { c.canceled.Store(true) })
	return c
}

func join(t *testing.T, o *Orchestrator, c *conn, room, user, disp string, owner bool) {
	t.Helper()
	err := o.Join(c.sid, protocol.JoinRoomPayload{RoomID: room, UserID: user, DispName: disp, IsOwner: owner})
	if err != nil {
		t.Fatalf("Join %s failed: %v", user, err)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
