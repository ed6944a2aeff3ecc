package roster

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/dkeye/clique/internal/domain"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per (room, user); present=0 rows are past members.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "data/roster.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// single writer keeps sqlite from returning SQLITE_BUSY under load
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("module", "roster.sqlite").Str("path", path).Msg("database initialized")
	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_members (
		room_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		disp_name TEXT NOT NULL DEFAULT '',
		real_name TEXT NOT NULL DEFAULT '',
		is_owner INTEGER NOT NULL DEFAULT 0,
		present INTEGER NOT NULL DEFAULT 1,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (room_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_room_members_present ON room_members(room_id, present);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) Enter(ctx context.Context, roomID domain.RoomID, m domain.PastMember) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_members (room_id, user_id, disp_name, real_name, is_owner, present, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(room_id, user_id) DO UPDATE SET
			disp_name = excluded.disp_name,
			real_name = excluded.real_name,
			is_owner = excluded.is_owner,
			present = 1,
			updated_at = CURRENT_TIMESTAMP
	`, string(roomID), string(m.ID), m.DisplayName, m.RealName, m.IsOwner)
	return err
}

func (s *SQLiteStore) Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE room_members SET present = 0, updated_at = CURRENT_TIMESTAMP
		WHERE room_id = ? AND user_id = ?
	`, string(roomID), string(userID))
	return err
}

// Members returns present and past members of roomID.
func (s *SQLiteStore) Members(ctx context.Context, roomID domain.RoomID) (present, past []domain.PastMember, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, disp_name, real_name, is_owner, present
		FROM room_members WHERE room_id = ?
		ORDER BY updated_at, user_id
	`, string(roomID))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m      domain.PastMember
			id     string
			isHere bool
		)
		if err := rows.Scan(&id, &m.DisplayName, &m.RealName, &m.IsOwner, &isHere); err != nil {
			return nil, nil, err
		}
		m.ID = domain.UserID(id)
		if isHere {
			present = append(present, m)
		} else {
			past = append(past, m)
		}
	}
	return present, past, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
