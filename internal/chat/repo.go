package chat

import (
	"context"
	"time"

	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/timeutil"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// WithTx returns a Repo that runs its statements on tx.
func (r *Repo) WithTx(tx *gorm.DB) *Repo {
	return &Repo{db: tx}
}

func (r *Repo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) FindDaySession(ctx context.Context, studentID uint64, subject models.Subject, day timeutil.DayKey) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject = ? AND day = ?", studentID, subject, day).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetSession(ctx context.Context, id uint64) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CloseTurnCAS sets ended_at if the row is still at version.
func (r *Repo) CloseTurnCAS(ctx context.Context, id uint64, version int64, endedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"ended_at": endedAt,
			"version":  gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkCounted flips counted on the session. Only the first caller gets true.
func (r *Repo) MarkCounted(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("id = ? AND counted = ?", id, false).
		Update("counted", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListMessages returns a session's messages in creation order.
func (r *Repo) ListMessages(ctx context.Context, sessionRef uint64) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("session_ref = ?", sessionRef).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListRecentSessions returns the student's latest sessions, newest first.
func (r *Repo) ListRecentSessions(ctx context.Context, studentID uint64, limit int) ([]SessionOverview, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []SessionOverview
	if err := r.db.WithContext(ctx).
		Table("chat_sessions AS s").
		Select("s.session_id, s.subject, s.day, s.started_at, s.ended_at, COUNT(m.id) AS message_count").
		Joins("LEFT JOIN chat_messages AS m ON m.session_ref = s.id").
		Where("s.student_id = ?", studentID).
		Group("s.id, s.session_id, s.subject, s.day, s.started_at, s.ended_at").
		Order("s.started_at DESC").
		Limit(limit).
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
