// Package redisstore holds the redis-backed request limiter.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const prefixChatRate = "ratelimit:chat:"

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   1,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// Limiter is a fixed-window counter per student.
type Limiter struct {
	rdb    redis.Cmdable
	limit  int64
	window time.Duration
	now    func() time.Time
}

func (s *Store) ChatLimiter(perMinute int) *Limiter {
	return &Limiter{rdb: s.rdb, limit: int64(perMinute), window: time.Minute, now: time.Now}
}

func (l *Limiter) key(studentID uint64) string {
	bucket := l.now().Unix() / int64(l.window/time.Second)
	return fmt.Sprintf("%s%d:%d", prefixChatRate, studentID, bucket)
}

// Allow counts one request for studentID in the current window. On redis
// errors it reports allowed together with the error.
func (l *Limiter) Allow(ctx context.Context, studentID uint64) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	key := l.key(studentID)
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window+5*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= l.limit, nil
}
