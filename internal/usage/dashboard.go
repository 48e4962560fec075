package usage

import (
	"context"
	"sort"

	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/timeutil"
)

const DashboardDays = 7

type Totals struct {
	Sessions          int64 `json:"sessions"`
	UserMessages      int64 `json:"user_messages"`
	AssistantMessages int64 `json:"assistant_messages"`
	Tokens            int64 `json:"tokens"`
	DurationSeconds   int64 `json:"duration_seconds"`
}

func (t *Totals) add(m DailyMetric) {
	t.Sessions += m.SessionsCount
	t.UserMessages += m.UserMessagesCount
	t.AssistantMessages += m.AssistantMessagesCount
	t.Tokens += m.TotalTokenEstimate
	t.DurationSeconds += m.TotalDurationSeconds
}

type SubjectSummary struct {
	Subject models.Subject `json:"subject"`
	Label   string         `json:"label"`
	Totals
}

type Dashboard struct {
	From       timeutil.DayKey  `json:"from"`
	To         timeutil.DayKey  `json:"to"`
	LastActive timeutil.DayKey  `json:"last_active,omitempty"`
	Totals     Totals           `json:"totals"`
	Subjects   []SubjectSummary `json:"subjects"`
	Days       []DailyMetric    `json:"days"`
}

// Dashboard rolls up the stored daily rows of the last DashboardDays days
// ending at today.
func (a *Aggregator) Dashboard(ctx context.Context, studentID uint64, today timeutil.DayKey) (*Dashboard, error) {
	from := today.AddDays(-(DashboardDays - 1))
	rows, err := a.repo.ListRange(ctx, studentID, from, today)
	if err != nil {
		return nil, apperr.Persistence("failed to load usage", err)
	}

	d := &Dashboard{From: from, To: today, Days: rows, Subjects: []SubjectSummary{}}
	if len(rows) > 0 {
		d.LastActive = rows[0].SummaryDate
	}

	bySubject := make(map[models.Subject]*SubjectSummary)
	for _, m := range rows {
		d.Totals.add(m)
		s, ok := bySubject[m.Subject]
		if !ok {
			s = &SubjectSummary{Subject: m.Subject, Label: m.Subject.Info().Label}
			bySubject[m.Subject] = s
		}
		s.add(m)
	}
	for _, s := range bySubject {
		d.Subjects = append(d.Subjects, *s)
	}
	sort.Slice(d.Subjects, func(i, j int) bool {
		a, b := d.Subjects[i], d.Subjects[j]
		if a.Sessions != b.Sessions {
			return a.Sessions > b.Sessions
		}
		if a.UserMessages != b.UserMessages {
			return a.UserMessages > b.UserMessages
		}
		return a.Subject < b.Subject
	})
	return d, nil
}
