package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound reports that no live record exists for the token.
	ErrNotFound = errors.New("session record not found")
	// ErrRedisUnavailable wraps transport-level Redis failures so callers
	// can distinguish outages from legitimate misses.
	ErrRedisUnavailable = errors.New("session redis unavailable")
	// ErrRecordExpired reports an attempt to persist a record whose expiry
	// is already in the past.
	ErrRecordExpired = errors.New("session record already expired")
)

// Record is one refresh-token session. Token is the raw refresh token; it
// is never persisted, only its digest is used as the key.
type Record struct {
	Token     string `json:"-"`
	UserID    string `json:"user_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Store is a Redis-backed session record store. It is safe for concurrent
// use; all synchronization happens in Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore builds a store keyed under prefix.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{redis: client, prefix: prefix, now: time.Now}
}

// key digests the raw token so token material never appears in Redis keys.
func (s *Store) key(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// Put persists the record with TTL equal to its remaining lifetime.
func (s *Store) Put(ctx context.Context, record *Record) error {
	ttl := time.Unix(record.ExpiresAt, 0).Sub(s.now())
	if ttl <= 0 {
		return ErrRecordExpired
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("session: encode record: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(record.Token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// FindByToken reads the live record for the token, or ErrNotFound.
func (s *Store) FindByToken(ctx context.Context, tokenString string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(tokenString)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.decode(tokenString, data)
}

// TakeByToken atomically reads and deletes the record. Under concurrent
// calls for the same token exactly one caller observes the record; the
// rest get ErrNotFound. This is the single-winner primitive refresh
// rotation relies on.
func (s *Store) TakeByToken(ctx context.Context, tokenString string) (*Record, error) {
	data, err := s.redis.GetDel(ctx, s.key(tokenString)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.decode(tokenString, data)
}

// DeleteByToken removes the record. Deleting an absent record is not an
// error; logout must be idempotent.
func (s *Store) DeleteByToken(ctx context.Context, tokenString string) error {
	if err := s.redis.Del(ctx, s.key(tokenString)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *Store) decode(tokenString string, data []byte) (*Record, error) {
	record := &Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("session: decode record: %w", err)
	}
	// TTL should have evicted this already; guard against clock drift.
	if s.now().Unix() > record.ExpiresAt {
		return nil, ErrNotFound
	}
	record.Token = tokenString
	return record, nil
}
