package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a token is unknown or already revoked.
var ErrNotFound = errors.New("token not found")

// Store keeps opaque bearer tokens in Redis. One token per user: a
// second Issue for the same user returns the existing credential, the
// way DRF-style token auth behaves. Tokens live until revoked.
type Store struct {
	rdb *redis.Client
}

// NewStore creates a token store backed by the given Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func tokenKey(t string) string { return "auth:token:" + t }

func userKey(id uint) string { return fmt.Sprintf("auth:user_token:%d", id) }

func newTokenValue() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }

// Issue returns the user's bearer token, creating one if none exists.
func (s *Store) Issue(ctx context.Context, userID uint) (string, error) {
	existing, err := s.rdb.Get(ctx, userKey(userID)).Result()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("token lookup failed: %w", err)
	}

	t := newTokenValue()
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, tokenKey(t), strconv.FormatUint(uint64(userID), 10), 0)
	pipe.Set(ctx, userKey(userID), t, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("token issue failed: %w", err)
	}
	return t, nil
}

// Lookup resolves a bearer token to a user ID.
func (s *Store) Lookup(ctx context.Context, t string) (uint, error) {
	val, err := s.rdb.Get(ctx, tokenKey(t)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("token lookup failed: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("corrupt token entry: %w", err)
	}
	return uint(id), nil
}

// Revoke invalidates a token. Revoking an unknown token is not an
// error, so a double logout stays quiet.
func (s *Store) Revoke(ctx context.Context, t string) error {
	val, err := s.rdb.Get(ctx, tokenKey(t)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("token revoke failed: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, tokenKey(t))
	if id, perr := strconv.ParseUint(val, 10, 32); perr == nil {
		pipe.Del(ctx, userKey(uint(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("token revoke failed: %w", err)
	}
	return nil
}
