// Package redisstore persists session flags in Redis so admin sessions
// survive server restarts and expire on their own.
package redisstore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/snackbox/admin-api/internal/domain/session"
)

const keyPrefix = "snackbox:session:"

var _ session.Store = (*SessionStore)(nil)

// NewClient parses a redis:// URL and returns a client. The caller owns the
// connection lifecycle.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis URL")
	}
	return redis.NewClient(opts), nil
}

// SessionStore implements session.Store over a Redis client.
type SessionStore struct {
	rdb *redis.Client
}

// NewSessionStore wraps the given client.
func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Put persists the session flag with the given TTL.
func (s *SessionStore) Put(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, keyPrefix+id, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "set session flag")
	}
	return nil
}

// Exists reports whether the session flag is still live.
func (s *SessionStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, errors.Wrap(err, "check session flag")
	}
	return n > 0, nil
}

// Delete clears the session flag. Deleting a missing flag is a no-op.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "delete session flag")
	}
	return nil
}
