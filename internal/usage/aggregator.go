package usage

import (
	"context"

	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/timeutil"
	"gorm.io/gorm"
)

// Aggregator maintains one DailyMetric row per (student, subject, day).
// Every mutation is a single conditional increment in the store; callers
// never read-modify-write counters.
type Aggregator struct {
	repo  *Repo
	clock timeutil.Clock
}

func NewAggregator(repo *Repo, clock timeutil.Clock) *Aggregator {
	return &Aggregator{repo: repo, clock: clock}
}

// WithTx returns an Aggregator whose increments join tx.
func (a *Aggregator) WithTx(tx *gorm.DB) *Aggregator {
	return &Aggregator{repo: a.repo.WithTx(tx), clock: a.clock}
}

// RecordUserTurn counts one user message, and one session when the turn
// is the first one recorded into its session.
func (a *Aggregator) RecordUserTurn(ctx context.Context, studentID uint64, subject models.Subject, day timeutil.DayKey, wasNewSession bool) error {
	now := a.clock.Now()
	row := &DailyMetric{
		StudentID:         studentID,
		Subject:           subject,
		SummaryDate:       day,
		UserMessagesCount: 1,
		LastCalculatedAt:  now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	incs := map[string]int64{"user_messages_count": 1}
	if wasNewSession {
		row.SessionsCount = 1
		incs["sessions_count"] = 1
	}
	if err := a.repo.UpsertIncrement(ctx, row, incs, now); err != nil {
		return apperr.Persistence("failed to record usage", err)
	}
	return nil
}

// RecordAssistantTurn credits one assistant reply with its elapsed time and
// token estimate. The day's row must already exist.
func (a *Aggregator) RecordAssistantTurn(ctx context.Context, studentID uint64, subject models.Subject, day timeutil.DayKey, durationDeltaSeconds int64, tokenEstimate *int) error {
	if durationDeltaSeconds < 0 {
		durationDeltaSeconds = 0
	}
	incs := map[string]int64{
		"assistant_messages_count": 1,
		"total_duration_seconds":   durationDeltaSeconds,
	}
	if tokenEstimate != nil && *tokenEstimate > 0 {
		incs["total_token_estimate"] = int64(*tokenEstimate)
	}

	found, err := a.repo.Increment(ctx, studentID, subject, day, incs, a.clock.Now())
	if err != nil {
		return apperr.Persistence("failed to record usage", err)
	}
	if !found {
		return apperr.Persistence("daily usage row missing for assistant turn", nil)
	}
	return nil
}
