package usage

import (
	"context"
	"errors"

	"github.com/withstudy/tutor/internal/apperr"
)

// EventSink receives finished-turn events. Implementations must not block
// the turn for long; delivery is best effort.
type EventSink interface {
	PublishTurn(ctx context.Context, e TurnEvent) error
}

// Ledger persists turn events consumed from the usage queue.
type Ledger struct {
	repo *Repo
}

func NewLedger(repo *Repo) *Ledger {
	return &Ledger{repo: repo}
}

// Record stores e. It reports false when the event was already recorded.
func (l *Ledger) Record(ctx context.Context, e TurnEvent) (bool, error) {
	if e.EventID == "" || e.StudentID == 0 {
		return false, apperr.Validation("turn event missing id")
	}
	if !e.Subject.Valid() {
		return false, errors.New("turn event has unknown subject " + string(e.Subject))
	}
	inserted, err := l.repo.InsertEvent(ctx, &Event{
		EventID:         e.EventID,
		StudentID:       e.StudentID,
		Subject:         e.Subject,
		Day:             e.Day,
		SessionID:       e.SessionID,
		NewSession:      e.NewSession,
		Outcome:         e.Outcome,
		DurationSeconds: e.DurationSeconds,
		Tokens:          e.Tokens,
		OccurredAt:      e.OccurredAt,
	})
	if err != nil {
		return false, apperr.Persistence("failed to record turn event", err)
	}
	return inserted, nil
}
