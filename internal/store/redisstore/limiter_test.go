package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_KeyIsPerStudentAndWindow(t *testing.T) {
	now := time.Unix(1_700_000_030, 0)
	l := &Limiter{limit: 1, window: time.Minute, now: func() time.Time { return now }}

	k1 := l.key(7)
	assert.Equal(t, "ratelimit:chat:7:28333333", k1)
	assert.NotEqual(t, k1, l.key(8))

	now = now.Add(time.Minute)
	assert.NotEqual(t, k1, l.key(7))
}

func TestLimiter_DisabledAlwaysAllows(t *testing.T) {
	l := &Limiter{limit: 0}
	ok, err := l.Allow(context.Background(), 1)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_FailsOpen(t *testing.T) {
	s := New("127.0.0.1:1", "", 0)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	ok, err := s.ChatLimiter(5).Allow(ctx, 1)
	assert.Error(t, err)
	assert.True(t, ok)
}
