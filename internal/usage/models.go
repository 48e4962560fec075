package usage

import (
	"time"

	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/timeutil"
)

// DailyMetric is the incrementally maintained rollup for one
// (student, subject, day). Counters only ever grow.
type DailyMetric struct {
	ID                     uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID              uint64          `gorm:"not null;index:uniq_daily_metric,unique,priority:1" json:"-"`
	Subject                models.Subject  `gorm:"type:varchar(32);not null;index:uniq_daily_metric,unique,priority:2" json:"subject"`
	SummaryDate            timeutil.DayKey `gorm:"type:varchar(10);not null;index:uniq_daily_metric,unique,priority:3;index" json:"summary_date"`
	SessionsCount          int64           `gorm:"not null;default:0" json:"sessions_count"`
	UserMessagesCount      int64           `gorm:"not null;default:0" json:"user_messages_count"`
	AssistantMessagesCount int64           `gorm:"not null;default:0" json:"assistant_messages_count"`
	TotalTokenEstimate     int64           `gorm:"not null;default:0" json:"total_token_estimate"`
	TotalDurationSeconds   int64           `gorm:"not null;default:0" json:"total_duration_seconds"`
	LastCalculatedAt       time.Time       `json:"last_calculated_at"`
	CreatedAt              time.Time       `json:"-"`
	UpdatedAt              time.Time       `json:"-"`
}

func (DailyMetric) TableName() string { return "daily_student_metrics" }

type Outcome string

const (
	OutcomeReplied Outcome = "replied"
	OutcomeFailed  Outcome = "failed"
)

// TurnEvent describes one finished chat turn. It is published after the
// rollup has been written and is the wire format of the usage queue.
type TurnEvent struct {
	EventID         string          `json:"event_id"`
	StudentID       uint64          `json:"student_id"`
	Subject         models.Subject  `json:"subject"`
	Day             timeutil.DayKey `json:"day"`
	SessionID       string          `json:"session_id"`
	NewSession      bool            `json:"new_session"`
	Outcome         Outcome         `json:"outcome"`
	DurationSeconds int64           `json:"duration_seconds"`
	Tokens          *int            `json:"tokens,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// Event is the ledger row written by the worker for each TurnEvent.
type Event struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement"`
	EventID         string          `gorm:"type:varchar(26);uniqueIndex;not null"`
	StudentID       uint64          `gorm:"index;not null"`
	Subject         models.Subject  `gorm:"type:varchar(32);not null"`
	Day             timeutil.DayKey `gorm:"type:varchar(10);index;not null"`
	SessionID       string          `gorm:"type:varchar(26);not null"`
	NewSession      bool            `gorm:"not null"`
	Outcome         Outcome         `gorm:"type:varchar(16);not null"`
	DurationSeconds int64           `gorm:"not null"`
	Tokens          *int
	OccurredAt      time.Time
	CreatedAt       time.Time
}

func (Event) TableName() string { return "usage_events" }
