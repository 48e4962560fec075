package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withstudy/tutor/internal/logging"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/testutil"
	"github.com/withstudy/tutor/internal/timeutil"
	"gorm.io/gorm"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func newTracker(t *testing.T) (*Tracker, *Repo) {
	t.Helper()
	gdb := testutil.OpenDB(t, &Session{}, &Message{})
	repo := NewRepo(gdb)
	return NewTracker(repo, tokyo, logging.Discard()), repo
}

func TestGetOrCreateTodaySession_ReusesWithinDay(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()
	morning := time.Date(2026, 4, 1, 0, 30, 0, 0, time.UTC) // 09:30 JST

	s1, created, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectMath, morning)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, timeutil.DayKey("2026-04-01"), s1.Day)
	assert.Nil(t, s1.EndedAt)
	assert.Len(t, s1.SessionID, 26)

	s2, created, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectMath, morning.Add(10*time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, s1.ID, s2.ID)

	// 15:30 UTC is past midnight in Tokyo
	s3, created, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectMath, morning.Add(15*time.Hour))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, timeutil.DayKey("2026-04-02"), s3.Day)

	s4, created, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectScience, morning)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, s1.ID, s4.ID)
}

func TestGetOrCreateTodaySession_ConcurrentCallsCreateOne(t *testing.T) {
	tr, repo := newTracker(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)

	const n = 10
	var wg sync.WaitGroup
	type result struct {
		id      uint64
		created bool
		err     error
	}
	results := make(chan result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, created, err := tr.GetOrCreateTodaySession(ctx, 7, models.SubjectEnglish, now)
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{id: s.ID, created: created}
		}()
	}
	wg.Wait()
	close(results)

	var createdCount int
	ids := map[uint64]bool{}
	for r := range results {
		require.NoError(t, r.err)
		ids[r.id] = true
		if r.created {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)
	assert.Len(t, ids, 1)

	var rows int64
	require.NoError(t, repo.db.Model(&Session{}).Where("student_id = ?", 7).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestCloseTurn_AccumulatesDeltasWithoutDoubleCounting(t *testing.T) {
	tr, repo := newTracker(t)
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)

	s, _, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectMath, start)
	require.NoError(t, err)

	d1, err := tr.CloseTurn(ctx, s, start.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(10), d1)

	d2, err := tr.CloseTurn(ctx, s, start.Add(15*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(5), d2)

	stored, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EndedAt)
	assert.True(t, stored.EndedAt.Equal(start.Add(15*time.Second)))
	assert.Equal(t, timeutil.DayKey("2026-04-01"), stored.Day)
}

func TestCloseTurn_ClockBehindBaseYieldsZero(t *testing.T) {
	tr, repo := newTracker(t)
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)

	s, _, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectMath, start)
	require.NoError(t, err)
	_, err = tr.CloseTurn(ctx, s, start.Add(30*time.Second))
	require.NoError(t, err)

	d, err := tr.CloseTurn(ctx, s, start.Add(20*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(0), d)

	stored, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.EndedAt.Equal(start.Add(30*time.Second)))
}

func TestCloseTurn_StaleCopyReloads(t *testing.T) {
	tr, repo := newTracker(t)
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)

	s, _, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectMath, start)
	require.NoError(t, err)
	stale, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)

	_, err = tr.CloseTurn(ctx, s, start.Add(10*time.Second))
	require.NoError(t, err)

	// a concurrent turn holding the pre-close copy must only see the new interval
	d, err := tr.CloseTurn(ctx, stale, start.Add(12*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), d)
	assert.Equal(t, int64(2), stale.Version)
}

func TestAppendMessage_PreservesOrder(t *testing.T) {
	tr, repo := newTracker(t)
	ctx := context.Background()
	s, _, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectMath, time.Now())
	require.NoError(t, err)

	tokens := 12
	_, err = tr.AppendMessage(ctx, s, RoleUser, "q1", nil)
	require.NoError(t, err)
	_, err = tr.AppendMessage(ctx, s, RoleAssistant, "a1", &tokens)
	require.NoError(t, err)

	msgs, err := repo.ListMessages(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "q1", msgs[0].Content)
	assert.Nil(t, msgs[0].TokensEstimated)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	require.NotNil(t, msgs[1].TokensEstimated)
	assert.Equal(t, 12, *msgs[1].TokensEstimated)

	recent, err := tr.RecentSessions(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(2), recent[0].MessageCount)
}

func TestClaimSessionCount_OnlyFirstClaimWins(t *testing.T) {
	tr, repo := newTracker(t)
	ctx := context.Background()
	s, _, err := tr.GetOrCreateTodaySession(ctx, 1, models.SubjectMath, time.Now())
	require.NoError(t, err)
	assert.False(t, s.Counted)

	// a rolled-back claim leaves the session claimable
	err = tr.InTx(ctx, func(tx *gorm.DB) error {
		ok, err := tr.WithTx(tx).ClaimSessionCount(ctx, s)
		require.NoError(t, err)
		assert.True(t, ok)
		return errors.New("abort")
	})
	require.Error(t, err)
	stored, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, stored.Counted)

	ok, err := tr.ClaimSessionCount(ctx, s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Counted)

	ok, err = tr.ClaimSessionCount(ctx, stored)
	require.NoError(t, err)
	assert.False(t, ok)
}
