package contextdoc

import (
	"time"

	"github.com/withstudy/tutor/internal/models"
)

// Document is the personalized text injected into every tutoring prompt.
// One row per student; created lazily, never deleted while the student exists.
type Document struct {
	ID           uint64                 `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID    uint64                 `gorm:"uniqueIndex;not null" json:"-"`
	Content      string                 `gorm:"type:text;not null" json:"content"`
	IsManualEdit bool                   `gorm:"not null;default:false" json:"is_manual_edit"`
	Snapshot     models.ProfileSnapshot `gorm:"embedded;embeddedPrefix:snapshot_" json:"profile_snapshot"`
	// Version guards concurrent drift updates.
	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string { return "context_documents" }
