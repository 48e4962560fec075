package contextdoc

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) GetByStudent(ctx context.Context, studentID uint64) (*Document, error) {
	var d Document
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts d. A concurrent first write for the same student surfaces
// as a duplicate-key error.
func (r *Repo) Create(ctx context.Context, d *Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// CompareAndSwap writes d's content, flag and snapshot only if the stored
// version still equals d.Version. On success d.Version is advanced.
func (r *Repo) CompareAndSwap(ctx context.Context, d *Document, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Document{}).
		Where("id = ? AND version = ?", d.ID, d.Version).
		Updates(map[string]any{
			"content":                   d.Content,
			"is_manual_edit":            d.IsManualEdit,
			"snapshot_grade":            d.Snapshot.Grade,
			"snapshot_favorite_subject": d.Snapshot.FavoriteSubject,
			"snapshot_mock_exam_score":  d.Snapshot.MockExamScore,
			"version":                   gorm.Expr("version + 1"),
			"updated_at":                now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	d.Version++
	d.UpdatedAt = now
	return true, nil
}

// Upsert replaces the student's document unconditionally, creating it if
// absent.
func (r *Repo) Upsert(ctx context.Context, d *Document) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"content":                   d.Content,
			"is_manual_edit":            d.IsManualEdit,
			"snapshot_grade":            d.Snapshot.Grade,
			"snapshot_favorite_subject": d.Snapshot.FavoriteSubject,
			"snapshot_mock_exam_score":  d.Snapshot.MockExamScore,
			"version":                   gorm.Expr("version + 1"),
			"updated_at":                d.UpdatedAt,
		}),
	}).Create(d).Error
}
