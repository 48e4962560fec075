package chat

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/timeutil"
	"gorm.io/gorm"
)

const maxSessionAttempts = 5

// Tracker finds or opens the daily session bucket and appends to it.
type Tracker struct {
	repo *Repo
	loc  *time.Location
	log  *logrus.Logger
}

func NewTracker(repo *Repo, loc *time.Location, log *logrus.Logger) *Tracker {
	return &Tracker{repo: repo, loc: loc, log: log}
}

// WithTx returns a Tracker whose writes join tx.
func (t *Tracker) WithTx(tx *gorm.DB) *Tracker {
	return &Tracker{repo: t.repo.WithTx(tx), loc: t.loc, log: t.log}
}

// InTx runs fn in one store transaction.
func (t *Tracker) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.repo.Transaction(ctx, fn)
}

// GetOrCreateTodaySession returns the session for the calendar day of now,
// creating it if needed. The (student, subject, day) unique key makes a
// concurrent creator lose with a duplicate-key error, after which the
// winner's row is read back.
func (t *Tracker) GetOrCreateTodaySession(ctx context.Context, studentID uint64, subject models.Subject, now time.Time) (*Session, bool, error) {
	day := timeutil.CalendarDay(now, t.loc)

	for attempt := 0; attempt < maxSessionAttempts; attempt++ {
		s, err := t.repo.FindDaySession(ctx, studentID, subject, day)
		if err == nil {
			return s, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperr.Persistence("failed to load chat session", err)
		}

		sid, err := common.NewULID()
		if err != nil {
			return nil, false, apperr.Persistence("failed to allocate session id", err)
		}
		s = &Session{
			SessionID: sid,
			StudentID: studentID,
			Subject:   subject,
			Day:       day,
			StartedAt: now,
		}
		err = t.repo.CreateSession(ctx, s)
		if err == nil {
			return s, true, nil
		}
		if !common.IsDuplicateKey(err) {
			return nil, false, apperr.Persistence("failed to create chat session", err)
		}
		t.log.WithFields(logrus.Fields{
			"student_id": studentID,
			"subject":    subject,
			"day":        day,
		}).Debug("session created concurrently, re-reading")
	}
	return nil, false, apperr.Persistence("could not resolve today's chat session", nil)
}

// AppendMessage stores a new message at the end of s.
func (t *Tracker) AppendMessage(ctx context.Context, s *Session, role, content string, tokensEstimated *int) (*Message, error) {
	if tokensEstimated != nil && *tokensEstimated < 0 {
		tokensEstimated = nil
	}
	m := &Message{
		SessionRef:      s.ID,
		Role:            role,
		Content:         content,
		TokensEstimated: tokensEstimated,
	}
	if err := t.repo.InsertMessage(ctx, m); err != nil {
		return nil, apperr.Persistence("failed to save chat message", err)
	}
	return m, nil
}

// ClaimSessionCount reports whether this caller is the first to count s in
// the daily rollup. A session row whose first turn failed to record stays
// unclaimed, so the next turn counts it.
func (t *Tracker) ClaimSessionCount(ctx context.Context, s *Session) (bool, error) {
	ok, err := t.repo.MarkCounted(ctx, s.ID)
	if err != nil {
		return false, apperr.Persistence("failed to update chat session", err)
	}
	if ok {
		s.Counted = true
	}
	return ok, nil
}

// CloseTurn marks the end of a turn at now and returns the whole seconds
// elapsed since the previous close (or the session start). The delta is
// never negative and ended_at never moves backwards, so concurrent closes
// cannot count the same interval twice.
func (t *Tracker) CloseTurn(ctx context.Context, s *Session, now time.Time) (int64, error) {
	cur := s
	for attempt := 0; attempt < maxSessionAttempts; attempt++ {
		base := cur.StartedAt
		if cur.EndedAt != nil {
			base = *cur.EndedAt
		}
		delta := int64(0)
		end := base
		if now.After(base) {
			delta = int64(now.Sub(base).Round(time.Second) / time.Second)
			end = now
		}

		ok, err := t.repo.CloseTurnCAS(ctx, cur.ID, cur.Version, end)
		if err != nil {
			return 0, apperr.Persistence("failed to close chat turn", err)
		}
		if ok {
			cur.EndedAt = &end
			cur.Version++
			if cur != s {
				*s = *cur
			}
			return delta, nil
		}

		cur, err = t.repo.GetSession(ctx, s.ID)
		if err != nil {
			return 0, apperr.Persistence("failed to reload chat session", err)
		}
	}
	return 0, apperr.Persistence("chat session is being closed concurrently", nil)
}

func (t *Tracker) RecentSessions(ctx context.Context, studentID uint64, limit int) ([]SessionOverview, error) {
	out, err := t.repo.ListRecentSessions(ctx, studentID, limit)
	if err != nil {
		return nil, apperr.Persistence("failed to load sessions", err)
	}
	return out, nil
}
