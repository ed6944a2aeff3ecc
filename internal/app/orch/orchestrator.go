package orch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/clique/internal/app"
	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/metrics"
	"github.com/dkeye/clique/internal/protocol"
	"github.com/dkeye/clique/internal/roster"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrEmptyRoomID    = errors.New("room id is empty")
)

type Options struct {
	GracePeriod       time.Duration
	ReconcileInterval time.Duration
	// ReconcileMaxAttempts caps reconciliation ticks per joiner; 0 means unbounded.
	ReconcileMaxAttempts int
}

func (o Options) withDefaults() Options {
	if o.GracePeriod <= 0 {
		o.GracePeriod = 3 * time.Second
	}
	if o.ReconcileInterval <= 0 {
		o.ReconcileInterval = time.Second
	}
	if o.ReconcileMaxAttempts < 0 {
		o.ReconcileMaxAttempts = 0
	}
	return o
}

// Orchestrator routes client events into rooms and runs membership
// lifecycle. Grace timers and reconcilers run as tracked tasks that stop
// on Close.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Roster   *roster.Notifier

	opts Options

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	tasks  conc.WaitGroup

	// reconcileDone, when set, is called as each reconciler exits.
	reconcileDone func(sid core.SessionID, reason string)
}

func New(reg *app.Registry, rooms core.RoomManager, policy app.Policy, notifier *roster.Notifier, opts Options) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		Roster:   notifier,
		opts:     opts.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close cancels pending grace checks and reconcilers and waits for them.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.tasks.Wait()
	log.Info().Str("module", "orch").Msg("orchestrator stopped")
}

func (o *Orchestrator) spawn(fn func(ctx context.Context)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.tasks.Go(func() { fn(o.ctx) })
	return true
}

// handlePublish applies the back-pressure policy to members that missed a frame.
func (o *Orchestrator) handlePublish(room core.RoomService, res core.PublishResult) {
	if len(res.Dropped) == 0 {
		return
	}
	metrics.FramesDropped.Add(float64(len(res.Dropped)))
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("room", string(room.ID())).Str("sid", string(slow.ID())).Msg("kicking slow member")
			o.Registry.Cancel(slow.ID())
		case app.DropFrame:
			log.Debug().Str("module", "orch").Str("room", string(room.ID())).Str("sid", string(slow.ID())).Msg("frame dropped for slow member")
		case app.MarkSlow, app.NoAction:
		}
	}
}

func encode(v any) core.Frame {
	data, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("failed to encode frame")
		return nil
	}
	return data
}
