package students

import (
	"context"

	"github.com/withstudy/tutor/internal/models"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, s *models.Student) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetByID(ctx context.Context, id uint64) (*models.Student, error) {
	var s models.Student
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	var s models.Student
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateProfile writes the three profile fields, including NULLs.
func (r *Repo) UpdateProfile(ctx context.Context, id uint64, p models.ProfileSnapshot) error {
	return r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"grade":            p.Grade,
			"favorite_subject": p.FavoriteSubject,
			"mock_exam_score":  p.MockExamScore,
		}).Error
}
