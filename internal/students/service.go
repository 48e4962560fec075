package students

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/auth"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/models"
	"gorm.io/gorm"
)

// ProfileInput is an update request as received from the client.
// A nil field clears the stored value.
type ProfileInput struct {
	Grade           *int    `json:"grade"`
	FavoriteSubject *string `json:"favorite_subject"`
	MockExamScore   *int    `json:"mock_exam_score"`
}

type Service struct {
	repo *Repo
	log  *logrus.Logger
}

func NewService(repo *Repo, log *logrus.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Register(ctx context.Context, email, password string) (*models.Student, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperr.Validation("a valid email address is required")
	}
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return nil, apperr.Validation(err.Error())
	}
	if err != nil {
		return nil, apperr.Persistence("failed to hash password", err)
	}

	st := &models.Student{Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, st); err != nil {
		if common.IsDuplicateKey(err) {
			return nil, apperr.Validation("email is already registered")
		}
		return nil, apperr.Persistence("failed to create student", err)
	}
	s.log.WithField("student_id", st.ID).Info("student registered")
	return st, nil
}

// Login checks credentials. Unknown email and wrong password are reported
// the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Student, error) {
	st, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Auth("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load student", err)
	}
	if !auth.CheckPassword(st.PasswordHash, password) {
		return nil, apperr.Auth("invalid email or password")
	}
	return st, nil
}

// GetByID loads an authenticated student. A token for a deleted student is
// an auth failure.
func (s *Service) GetByID(ctx context.Context, id uint64) (*models.Student, error) {
	st, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Auth("authentication required")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load student", err)
	}
	return st, nil
}

func (s *Service) UpdateProfile(ctx context.Context, st *models.Student, in ProfileInput) (*models.Student, error) {
	if st == nil {
		return nil, apperr.Auth("authentication required")
	}
	p, err := in.validate()
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, st.ID, p); err != nil {
		return nil, apperr.Persistence("failed to update profile", err)
	}
	updated := *st
	updated.Grade = p.Grade
	updated.FavoriteSubject = p.FavoriteSubject
	updated.MockExamScore = p.MockExamScore
	return &updated, nil
}

func (in ProfileInput) validate() (models.ProfileSnapshot, error) {
	var p models.ProfileSnapshot
	if in.Grade != nil {
		if *in.Grade < 1 || *in.Grade > 3 {
			return p, apperr.Validation("grade must be 1, 2 or 3")
		}
		g := *in.Grade
		p.Grade = &g
	}
	if in.FavoriteSubject != nil && strings.TrimSpace(*in.FavoriteSubject) != "" {
		subj, err := models.ParseSubject(*in.FavoriteSubject)
		if err != nil {
			return p, err
		}
		p.FavoriteSubject = &subj
	}
	if in.MockExamScore != nil {
		if *in.MockExamScore < 0 || *in.MockExamScore > 100 {
			return p, apperr.Validation("mock exam score must be between 0 and 100")
		}
		sc := *in.MockExamScore
		p.MockExamScore = &sc
	}
	return p, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
