package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/clique/internal/domain"
	"github.com/redis/go-redis/v9"
)

const rosterTTL = 24 * time.Hour

// RedisStore keeps two hashes per room, userId -> member JSON.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func membersKey(roomID domain.RoomID) string {
	return fmt.Sprintf("room:%s:members", roomID)
}

func pastKey(roomID domain.RoomID) string {
	return fmt.Sprintf("room:%s:past", roomID)
}

func (s *RedisStore) Enter(ctx context.Context, roomID domain.RoomID, m domain.PastMember) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, membersKey(roomID), string(m.ID), data)
		pipe.HDel(ctx, pastKey(roomID), string(m.ID))
		pipe.Expire(ctx, membersKey(roomID), rosterTTL)
		return nil
	})
	return err
}

func (s *RedisStore) Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	data, err := s.client.HGet(ctx, membersKey(roomID), string(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, membersKey(roomID), string(userID))
		pipe.HSetNX(ctx, pastKey(roomID), string(userID), data)
		pipe.Expire(ctx, pastKey(roomID), rosterTTL)
		return nil
	})
	return err
}

// Members returns present and past members of roomID.
func (s *RedisStore) Members(ctx context.Context, roomID domain.RoomID) (present, past []domain.PastMember, err error) {
	if present, err = s.readHash(ctx, membersKey(roomID)); err != nil {
		return nil, nil, err
	}
	if past, err = s.readHash(ctx, pastKey(roomID)); err != nil {
		return nil, nil, err
	}
	return present, past, nil
}

func (s *RedisStore) readHash(ctx context.Context, key string) ([]domain.PastMember, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.PastMember, 0, len(vals))
	for _, raw := range vals {
		var m domain.PastMember
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
