package chat

import (
	"time"

	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/timeutil"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session buckets one student's messages for one subject and calendar day.
// Day is fixed from StartedAt at creation and never recomputed.
type Session struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string          `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	StudentID uint64          `gorm:"not null;index:uniq_chat_session_day,unique,priority:1" json:"-"`
	Subject   models.Subject  `gorm:"type:varchar(32);not null;index:uniq_chat_session_day,unique,priority:2" json:"subject"`
	Day       timeutil.DayKey `gorm:"type:varchar(10);not null;index:uniq_chat_session_day,unique,priority:3" json:"day"`
	StartedAt time.Time       `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time      `json:"ended_at"`
	// Version is bumped by every closeTurn; it serializes concurrent closes.
	Version   int64     `gorm:"not null;default:0" json:"-"`
	// Counted is set by the user turn that added this session to the daily rollup.
	Counted   bool      `gorm:"not null;default:false" json:"-"`
	Messages  []Message `gorm:"foreignKey:SessionRef;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "chat_sessions" }

// Message is append-only.
type Message struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionRef      uint64    `gorm:"not null;index" json:"-"`
	Role            string    `gorm:"type:varchar(16);not null" json:"role"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	TokensEstimated *int      `json:"tokens_estimated,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

// SessionOverview is a recent session with its message count.
type SessionOverview struct {
	SessionID    string          `json:"session_id"`
	Subject      models.Subject  `json:"subject"`
	Day          timeutil.DayKey `json:"day"`
	StartedAt    time.Time       `json:"started_at"`
	EndedAt      *time.Time      `json:"ended_at"`
	MessageCount int64           `json:"message_count"`
}
