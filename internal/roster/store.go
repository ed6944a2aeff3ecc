package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/clique/internal/config"
	"github.com/dkeye/clique/internal/domain"
	"github.com/rs/zerolog/log"
)

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks

var ErrUnknownDriver = errors.New("unknown roster driver")

// Store persists who is in a room and who has been. It mirrors the live
// state held by the realtime engine but is never read back by it.
type Store interface {
	// Enter marks member present in roomID and drops any past record of it.
	Enter(ctx context.Context, roomID domain.RoomID, member domain.PastMember) error
	// Leave marks userID absent and keeps it as a past member.
	Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.RosterConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "none":
		s = Nop{}
	case "sqlite":
		s, err = NewSQLiteStore(cfg.DSN)
	case "redis":
		s, err = NewRedisStore(ctx, cfg.URL)
	case "postgres":
		s, err = NewPostgresStore(ctx, cfg.DSN)
	case "http":
		s, err = NewHTTPStore(cfg.URL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s roster: %w", cfg.Driver, err)
	}
	log.Info().Str("module", "roster").Str("driver", cfg.Driver).Msg("roster store ready")
	return s, nil
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Enter(context.Context, domain.RoomID, domain.PastMember) error { return nil }
func (Nop) Leave(context.Context, domain.RoomID, domain.UserID) error     { return nil }
func (Nop) Ping(context.Context) error                                    { return nil }
func (Nop) Close() error                                                  { return nil }
