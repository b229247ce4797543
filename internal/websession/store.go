package websession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps the key/value pairs of every browser session. A missing key or
// session reads as "".
type Store interface {
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string) error
	Remove(ctx context.Context, sid string, keys ...string) error
	// Touch extends the session lifetime.
	Touch(ctx context.Context, sid string) error
}

const redisKeyPrefix = "menux:web:session:"

// RedisStore keeps each session in one hash whose TTL slides on every write
// and every request.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sid string) string {
	return redisKeyPrefix + sid
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, error) {
	val, err := s.client.HGet(ctx, s.key(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key(sid), key, value)
		pipe.Expire(ctx, s.key(sid), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key(sid), keys...).Err(); err != nil {
		return fmt.Errorf("session remove: %w", err)
	}
	return nil
}

func (s *RedisStore) Touch(ctx context.Context, sid string) error {
	return s.client.Expire(ctx, s.key(sid), s.ttl).Err()
}

type memoryEntry struct {
	values  map[string]string
	expires time.Time
}

// MemoryStore is a process-local Store for tests and single-instance
// development setups.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: map[string]*memoryEntry{}}
}

// entry returns the live entry for sid, dropping it when expired. Callers
// hold s.mu.
func (s *MemoryStore) entry(sid string, create bool) *memoryEntry {
	e, ok := s.sessions[sid]
	if ok && !s.now().Before(e.expires) {
		delete(s.sessions, sid)
		ok = false
	}
	if !ok && create {
		e = &memoryEntry{values: map[string]string{}}
		s.sessions[sid] = e
		ok = true
	}
	if ok {
		e.expires = s.now().Add(s.ttl)
	}
	return e
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entry(sid, false); e != nil {
		return e.values[key], nil
	}
	return "", nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(sid, true).values[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, sid string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entry(sid, false); e != nil {
		for _, k := range keys {
			delete(e.values, k)
		}
	}
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(sid, false)
	return nil
}
