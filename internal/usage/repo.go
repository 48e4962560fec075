package usage

import (
	"context"
	"time"

	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/timeutil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var dailyMetricKey = []clause.Column{{Name: "student_id"}, {Name: "subject"}, {Name: "summary_date"}}

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

// UpsertIncrement inserts row as-is when its key is new, otherwise applies
// incs as "col = col + n" to the existing row. One statement, no read.
func (r *Repo) UpsertIncrement(ctx context.Context, row *DailyMetric, incs map[string]int64, now time.Time) error {
	set := make(map[string]any, len(incs)+2)
	for col, n := range incs {
		set[col] = gorm.Expr(col+" + ?", n)
	}
	set["last_calculated_at"] = now
	set["updated_at"] = now

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   dailyMetricKey,
		DoUpdates: clause.Assignments(set),
	}).Create(row).Error
}

// Increment applies incs to the existing row for the key. It reports whether
// a row was found.
func (r *Repo) Increment(ctx context.Context, studentID uint64, subject models.Subject, day timeutil.DayKey, incs map[string]int64, now time.Time) (bool, error) {
	set := make(map[string]any, len(incs)+1)
	for col, n := range incs {
		set[col] = gorm.Expr(col+" + ?", n)
	}
	set["last_calculated_at"] = now

	res := r.db.WithContext(ctx).Model(&DailyMetric{}).
		Where("student_id = ? AND subject = ? AND summary_date = ?", studentID, subject, day).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repo) Get(ctx context.Context, studentID uint64, subject models.Subject, day timeutil.DayKey) (*DailyMetric, error) {
	var m DailyMetric
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject = ? AND summary_date = ?", studentID, subject, day).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListRange returns rows with from <= summary_date <= to, newest day first.
func (r *Repo) ListRange(ctx context.Context, studentID uint64, from, to timeutil.DayKey) ([]DailyMetric, error) {
	var rows []DailyMetric
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND summary_date >= ? AND summary_date <= ?", studentID, from, to).
		Order("summary_date DESC").
		Order("subject ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertEvent records e once; redeliveries of the same event id are ignored.
func (r *Repo) InsertEvent(ctx context.Context, e *Event) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
