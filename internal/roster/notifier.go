package roster

import (
	"context"
	"time"

	"github.com/dkeye/clique/internal/domain"
	"github.com/dkeye/clique/internal/metrics"
	"github.com/rs/zerolog/log"
)

type opKind string

const (
	opEnter opKind = "enter"
	opLeave opKind = "leave"
)

type job struct {
	kind   opKind
	room   domain.RoomID
	member domain.PastMember
	user   domain.UserID
}

// Notifier forwards membership changes to a Store off the hot path.
// Enqueue never blocks; a full queue drops the call. Failed calls are
// logged and not retried.
type Notifier struct {
	store   Store
	timeout time.Duration
	queue   chan job
}

func NewNotifier(store Store, queueSize int, timeout time.Duration) *Notifier {
	if queueSize <= 0 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Notifier{store: store, timeout: timeout, queue: make(chan job, queueSize)}
}

func (n *Notifier) Enter(roomID domain.RoomID, member domain.PastMember) {
	n.enqueue(job{kind: opEnter, room: roomID, member: member, user: member.ID})
}

func (n *Notifier) Leave(roomID domain.RoomID, userID domain.UserID) {
	n.enqueue(job{kind: opLeave, room: roomID, user: userID})
}

func (n *Notifier) enqueue(j job) {
	select {
	case n.queue <- j:
	default:
		metrics.RosterCalls.WithLabelValues(string(j.kind), "dropped").Inc()
		log.Warn().Str("module", "roster").Str("op", string(j.kind)).
			Str("room", string(j.room)).Str("user", string(j.user)).Msg("roster queue full, dropping")
	}
}

// Run processes jobs until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-n.queue:
			n.process(ctx, j)
		}
	}
}

func (n *Notifier) process(ctx context.Context, j job) {
	cctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := time.Now()
	var err error
	switch j.kind {
	case opEnter:
		err = n.store.Enter(cctx, j.room, j.member)
	case opLeave:
		err = n.store.Leave(cctx, j.room, j.user)
	}
	metrics.RosterLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RosterCalls.WithLabelValues(string(j.kind), "error").Inc()
		log.Error().Err(err).Str("module", "roster").Str("op", string(j.kind)).
			Str("room", string(j.room)).Str("user", string(j.user)).Msg("roster call failed")
		return
	}
	metrics.RosterCalls.WithLabelValues(string(j.kind), "ok").Inc()
	log.Debug().Str("module", "roster").Str("op", string(j.kind)).
		Str("room", string(j.room)).Str("user", string(j.user)).Msg("roster updated")
}
