// Package claim grants at-most-once ownership of a named piece of work, such
// as materializing one occurrence of a recurring template, across every
// worker that shares the same Redis.
package claim

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claimer hands out exclusive, expiring claims. Claim reports false when
// another owner already holds the key.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const keyPrefix = "walletguru:claim:"

func redisKey(key string) string {
	return keyPrefix + key
}

// Redis claims keys with SET NX. Releases only delete claims this owner holds.
type Redis struct {
	rdb   *redis.Client
	owner string
}

func NewRedis(rdb *redis.Client, owner string) *Redis {
	return &Redis{rdb: rdb, owner: owner}
}

func (r *Redis) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.rdb.SetNX(ctx, redisKey(key), r.owner, ttl).Result()
}

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
else
	return 0
end`)

func (r *Redis) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, r.rdb, []string{redisKey(key)}, r.owner).Err()
}

// Memory is a single-process Claimer used when no Redis is configured.
// Expired claims are dropped at most once per sweepEvery.
type Memory struct {
	mu        sync.Mutex
	claims    map[string]time.Time
	now       func() time.Time
	nextSweep time.Time
}

const sweepEvery = time.Minute

func NewMemory() *Memory {
	return &Memory{claims: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if !now.Before(m.nextSweep) {
		m.sweep(now)
	}
	if exp, ok := m.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.claims[key] = now.Add(ttl)
	return true, nil
}

func (m *Memory) sweep(now time.Time) {
	for k, exp := range m.claims {
		if !now.Before(exp) {
			delete(m.claims, k)
		}
	}
	m.nextSweep = now.Add(sweepEvery)
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, key)
	return nil
}
