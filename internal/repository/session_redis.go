package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"session_auth/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionRedis stores sessions as JSON values whose TTL tracks the absolute
// lifetime. Idle expiry is checked by the caller on read.
type SessionRedis struct {
	rdb *redis.Client
}

func NewSessionRedis(rdb *redis.Client) *SessionRedis {
	return &SessionRedis{rdb: rdb}
}

var _ SessionRepo = (*SessionRedis)(nil)

type redisSession struct {
	Username   string `json:"username"`
	CreatedAt  int64  `json:"created_at"`
	LastSeenAt int64  `json:"last_seen_at"`
	ExpiresAt  int64  `json:"expires_at"`
}

func sessionKey(tokenHash string) string {
	return sessionKeyPrefix + tokenHash
}

func (r *SessionRedis) Create(ctx context.Context, s models.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session for %q already expired", s.Username)
	}
	payload, err := json.Marshal(redisSession{
		Username:   s.Username,
		CreatedAt:  s.CreatedAt.Unix(),
		LastSeenAt: s.LastSeenAt.Unix(),
		ExpiresAt:  s.ExpiresAt.Unix(),
	})
	if err != nil {
		return err
	}
	// never overwrite a live session
	ok, err := r.rdb.SetNX(ctx, sessionKey(s.TokenHash), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	if !ok {
		return errors.New("session id collision")
	}
	return nil
}

// Get returns (nil, nil) when the key is missing or already expired.
func (r *SessionRedis) Get(ctx context.Context, tokenHash string) (*models.Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var rs redisSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &models.Session{
		TokenHash:  tokenHash,
		Username:   rs.Username,
		CreatedAt:  time.Unix(rs.CreatedAt, 0).UTC(),
		LastSeenAt: time.Unix(rs.LastSeenAt, 0).UTC(),
		ExpiresAt:  time.Unix(rs.ExpiresAt, 0).UTC(),
	}, nil
}

func (r *SessionRedis) Touch(ctx context.Context, tokenHash string, lastSeen time.Time) error {
	s, err := r.Get(ctx, tokenHash)
	if err != nil || s == nil {
		return err
	}
	payload, err := json.Marshal(redisSession{
		Username:   s.Username,
		CreatedAt:  s.CreatedAt.Unix(),
		LastSeenAt: lastSeen.Unix(),
		ExpiresAt:  s.ExpiresAt.Unix(),
	})
	if err != nil {
		return err
	}
	// XX + KEEPTTL: do not resurrect a key deleted in between
	err = r.rdb.SetArgs(ctx, sessionKey(tokenHash), payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis touch session: %w", err)
	}
	return nil
}

func (r *SessionRedis) Delete(ctx context.Context, tokenHash string) (bool, error) {
	n, err := r.rdb.Del(ctx, sessionKey(tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete session: %w", err)
	}
	return n > 0, nil
}

// DeleteExpired is a no-op: redis expires keys on its own and idle sessions
// are rejected (and deleted) when read.
func (r *SessionRedis) DeleteExpired(ctx context.Context, now, idleCutoff time.Time) (int64, error) {
	return 0, nil
}
