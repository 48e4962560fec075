package contextdoc

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/timeutil"
	"gorm.io/gorm"
)

const maxResolveAttempts = 4

// Manager owns generation, drift detection and manual-edit preservation of
// students' context documents.
type Manager struct {
	repo  *Repo
	clock timeutil.Clock
	log   *logrus.Logger
}

func NewManager(repo *Repo, clock timeutil.Clock, log *logrus.Logger) *Manager {
	return &Manager{repo: repo, clock: clock, log: log}
}

// Resolve returns the student's current document text, creating or bringing
// it up to date with the profile first. Manual content is never replaced;
// profile drift is appended to it as a note.
func (m *Manager) Resolve(ctx context.Context, st *models.Student) (string, error) {
	if st == nil {
		return "", apperr.Auth("authentication required")
	}
	cur := st.Profile()

	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		doc, err := m.repo.GetByStudent(ctx, st.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := m.clock.Now()
			doc = &Document{
				StudentID: st.ID,
				Content:   Baseline(cur),
				Snapshot:  cur,
				CreatedAt: now,
				UpdatedAt: now,
			}
			err = m.repo.Create(ctx, doc)
			if err == nil {
				m.log.WithFields(logrus.Fields{"student_id": st.ID}).Info("context document created")
				return doc.Content, nil
			}
			if common.IsDuplicateKey(err) {
				// another request created it first; take the update path
				continue
			}
			return "", apperr.Persistence("failed to save context document", err)
		}
		if err != nil {
			return "", apperr.Persistence("failed to load context document", err)
		}

		if doc.Snapshot.Equal(cur) {
			return doc.Content, nil
		}

		now := m.clock.Now()
		old := doc.Snapshot
		if doc.IsManualEdit {
			doc.Content += DriftNote(old, cur, now)
		} else {
			doc.Content = Baseline(cur)
		}
		doc.Snapshot = cur

		swapped, err := m.repo.CompareAndSwap(ctx, doc, now)
		if err != nil {
			return "", apperr.Persistence("failed to update context document", err)
		}
		if swapped {
			m.log.WithFields(logrus.Fields{
				"student_id": st.ID,
				"manual":     doc.IsManualEdit,
			}).Info("context document refreshed after profile change")
			return doc.Content, nil
		}
		// lost a concurrent update; re-read and re-evaluate against the new row
	}
	return "", apperr.Persistence("context document is being updated concurrently", nil)
}

// Save stores content verbatim as a manual edit and marks the current
// profile as seen.
func (m *Manager) Save(ctx context.Context, st *models.Student, content string) error {
	if st == nil {
		return apperr.Auth("authentication required")
	}
	now := m.clock.Now()
	doc := &Document{
		StudentID:    st.ID,
		Content:      content,
		IsManualEdit: true,
		Snapshot:     st.Profile(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.repo.Upsert(ctx, doc); err != nil {
		return apperr.Persistence("failed to save context document", err)
	}
	return nil
}

// Regenerate discards any manual content and rebuilds the baseline.
func (m *Manager) Regenerate(ctx context.Context, st *models.Student) (string, error) {
	if st == nil {
		return "", apperr.Auth("authentication required")
	}
	now := m.clock.Now()
	cur := st.Profile()
	doc := &Document{
		StudentID: st.ID,
		Content:   Baseline(cur),
		Snapshot:  cur,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.repo.Upsert(ctx, doc); err != nil {
		return "", apperr.Persistence("failed to regenerate context document", err)
	}
	return doc.Content, nil
}

// Get returns the stored document without reconciling it.
func (m *Manager) Get(ctx context.Context, studentID uint64) (*Document, error) {
	doc, err := m.repo.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, apperr.Persistence("failed to load context document", err)
	}
	return doc, nil
}
