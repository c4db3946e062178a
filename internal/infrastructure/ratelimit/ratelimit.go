// Package ratelimit counts positive swipe decisions per viewer per UTC day.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyTTL = 48 * time.Hour

func dayKey(viewerID int64, now time.Time) string {
	return fmt.Sprintf("likes:daily:%d:%s", viewerID, now.UTC().Format("20060102"))
}

// RedisLimiter keeps one counter per viewer and day in Redis. A like takes a
// slot with INCR first and compares the returned value, so concurrent likes
// cannot pass the limit together.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, dailyLimit int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(dailyLimit),
		now:    time.Now,
	}
}

// ReserveLike takes one slot of today's quota. It reports false, holding
// nothing, when the quota is used up.
func (l *RedisLimiter) ReserveLike(ctx context.Context, viewerID int64) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	key := dayKey(viewerID, l.now())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count like: %w", err)
	}

	if incr.Val() > l.limit {
		if err := l.client.Decr(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("failed to return like slot: %w", err)
		}
		return false, nil
	}
	return true, nil
}

// ReleaseLike gives back a slot taken by a like that was not stored.
func (l *RedisLimiter) ReleaseLike(ctx context.Context, viewerID int64) error {
	if l.limit <= 0 {
		return nil
	}
	if err := l.client.Decr(ctx, dayKey(viewerID, l.now())).Err(); err != nil {
		return fmt.Errorf("failed to return like slot: %w", err)
	}
	return nil
}

// MemoryLimiter is the in-process variant used when Redis is not configured.
type MemoryLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	limit  int64
	now    func() time.Time
}

func NewMemoryLimiter(dailyLimit int) *MemoryLimiter {
	return &MemoryLimiter{
		counts: make(map[string]int64),
		limit:  int64(dailyLimit),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) ReserveLike(ctx context.Context, viewerID int64) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)
	key := dayKey(viewerID, now)
	if l.counts[key] >= l.limit {
		return false, nil
	}
	l.counts[key]++
	return true, nil
}

func (l *MemoryLimiter) ReleaseLike(ctx context.Context, viewerID int64) error {
	if l.limit <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := dayKey(viewerID, l.now())
	if l.counts[key] > 0 {
		l.counts[key]--
	}
	return nil
}

// Used reports how many slots the viewer holds today.
func (l *MemoryLimiter) Used(viewerID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[dayKey(viewerID, l.now())]
}

func (l *MemoryLimiter) pruneLocked(now time.Time) {
	today := now.UTC().Format("20060102")
	for k := range l.counts {
		if k[len(k)-8:] != today {
			delete(l.counts, k)
		}
	}
}
