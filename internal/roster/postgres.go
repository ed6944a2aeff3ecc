package roster

import (
	"context"

	"github.com/dkeye/clique/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore uses the same row-per-member layout as SQLiteStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS room_members (
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			disp_name TEXT NOT NULL DEFAULT '',
			real_name TEXT NOT NULL DEFAULT '',
			is_owner BOOLEAN NOT NULL DEFAULT FALSE,
			present BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (room_id, user_id)
		)
	`); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Enter(ctx context.Context, roomID domain.RoomID, m domain.PastMember) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, disp_name, real_name, is_owner, present, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now())
		ON CONFLICT (room_id, user_id) DO UPDATE SET
			disp_name = EXCLUDED.disp_name,
			real_name = EXCLUDED.real_name,
			is_owner = EXCLUDED.is_owner,
			present = TRUE,
			updated_at = now()
	`, string(roomID), string(m.ID), m.DisplayName, m.RealName, m.IsOwner)
	return err
}

func (s *PostgresStore) Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE room_members SET present = FALSE, updated_at = now()
		WHERE room_id = $1 AND user_id = $2
	`, string(roomID), string(userID))
	return err
}

// Members returns present and past members of roomID.
func (s *PostgresStore) Members(ctx context.Context, roomID domain.RoomID) (present, past []domain.PastMember, err error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, disp_name, real_name, is_owner, present
		FROM room_members WHERE room_id = $1 ORDER BY updated_at
	`, string(roomID))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m      domain.PastMember
			id     string
			active bool
		)
		if err := rows.Scan(&id, &m.DisplayName, &m.RealName, &m.IsOwner, &active); err != nil {
			return nil, nil, err
		}
		m.ID = domain.UserID(id)
		if active {
			present = append(present, m)
		} else {
			past = append(past, m)
		}
	}
	return present, past, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
