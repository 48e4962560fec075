package models

import "time"

type Student struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string    `gorm:"type:varchar(255);not null" json:"-"`
	Grade           *int      `json:"grade"`
	FavoriteSubject *Subject  `gorm:"type:varchar(32)" json:"favorite_subject"`
	MockExamScore   *int      `json:"mock_exam_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Student) TableName() string { return "students" }

// Profile returns a copy of the fields the context document is generated from.
func (s *Student) Profile() ProfileSnapshot {
	return ProfileSnapshot{
		Grade:           cloneInt(s.Grade),
		FavoriteSubject: cloneSubject(s.FavoriteSubject),
		MockExamScore:   cloneInt(s.MockExamScore),
	}
}

// ProfileSnapshot is an immutable view of a student's profile at one point in
// time. Nil fields are unset.
type ProfileSnapshot struct {
	Grade           *int     `json:"grade"`
	FavoriteSubject *Subject `gorm:"type:varchar(32)" json:"favorite_subject"`
	MockExamScore   *int     `json:"mock_exam_score"`
}

func (p ProfileSnapshot) Equal(o ProfileSnapshot) bool {
	return eqInt(p.Grade, o.Grade) &&
		eqSubject(p.FavoriteSubject, o.FavoriteSubject) &&
		eqInt(p.MockExamScore, o.MockExamScore)
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqSubject(a, b *Subject) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneSubject(v *Subject) *Subject {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
