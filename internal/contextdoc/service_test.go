package contextdoc

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/logging"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/testutil"
	"github.com/withstudy/tutor/internal/timeutil"
)

func newManager(t *testing.T) (*Manager, *Repo) {
	t.Helper()
	gdb := testutil.OpenDB(t, &Document{})
	repo := NewRepo(gdb)
	clock := &timeutil.FixedClock{T: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	return NewManager(repo, clock, logging.Discard()), repo
}

func intp(v int) *int { return &v }

func subj(s models.Subject) *models.Subject { return &s }

func TestResolve_NewStudentGetsBaseline(t *testing.T) {
	m, repo := newManager(t)
	ctx := context.Background()
	st := &models.Student{ID: 1, Grade: intp(2), FavoriteSubject: subj(models.SubjectMath)}

	text, err := m.Resolve(ctx, st)
	require.NoError(t, err)
	assert.Contains(t, text, "Grade: 2")
	assert.Contains(t, text, "Math")

	doc, err := repo.GetByStudent(ctx, 1)
	require.NoError(t, err)
	assert.False(t, doc.IsManualEdit)
	assert.True(t, doc.Snapshot.Equal(st.Profile()))

	again, err := m.Resolve(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestResolve_IncompleteProfileOmitsFields(t *testing.T) {
	m, _ := newManager(t)
	st := &models.Student{ID: 7}

	text, err := m.Resolve(context.Background(), st)
	require.NoError(t, err)
	assert.NotContains(t, text, "Grade")
	assert.NotContains(t, text, "mock exam")
	assert.NotContains(t, text, "unset")
}

func TestResolve_AutoDocumentFollowsProfile(t *testing.T) {
	m, repo := newManager(t)
	ctx := context.Background()
	st := &models.Student{ID: 2, Grade: intp(1)}

	_, err := m.Resolve(ctx, st)
	require.NoError(t, err)

	st.Grade = intp(3)
	st.MockExamScore = intp(85)
	text, err := m.Resolve(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, Baseline(st.Profile()), text)
	assert.NotContains(t, text, DriftMarker)

	doc, err := repo.GetByStudent(ctx, 2)
	require.NoError(t, err)
	assert.False(t, doc.IsManualEdit)
	assert.Equal(t, 3, *doc.Snapshot.Grade)
}

func TestSaveThenDrift_PreservesManualText(t *testing.T) {
	m, repo := newManager(t)
	ctx := context.Background()
	st := &models.Student{ID: 3, Grade: intp(2), FavoriteSubject: subj(models.SubjectMath)}

	first, err := m.Resolve(ctx, st)
	require.NoError(t, err)
	assert.Contains(t, first, "Grade: 2")

	require.NoError(t, m.Save(ctx, st, "My custom notes"))
	text, err := m.Resolve(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, "My custom notes", text)

	st.Grade = intp(3)
	text, err = m.Resolve(ctx, st)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "My custom notes"))
	assert.Contains(t, text, DriftMarker)
	assert.Contains(t, text, "- grade: 2 -> 3")

	doc, err := repo.GetByStudent(ctx, 3)
	require.NoError(t, err)
	assert.True(t, doc.IsManualEdit)
	assert.Equal(t, 3, *doc.Snapshot.Grade)

	// no further drift: content is stable
	again, err := m.Resolve(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, text, again)
	assert.Equal(t, 1, strings.Count(again, DriftMarker))
}

func TestSave_WithoutPriorDocument(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	st := &models.Student{ID: 4, MockExamScore: intp(40)}

	require.NoError(t, m.Save(ctx, st, "NOTES"))
	st.MockExamScore = nil
	text, err := m.Resolve(ctx, st)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "NOTES"))
	assert.Contains(t, text, "- mock exam score: 40 -> unset")
}

func TestRegenerate_IsIdempotentAndClearsManual(t *testing.T) {
	m, repo := newManager(t)
	ctx := context.Background()
	st := &models.Student{ID: 5, Grade: intp(1), FavoriteSubject: subj(models.SubjectScience), MockExamScore: intp(72)}

	require.NoError(t, m.Save(ctx, st, "hand written"))

	a, err := m.Regenerate(ctx, st)
	require.NoError(t, err)
	b, err := m.Regenerate(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotContains(t, a, "hand written")

	doc, err := repo.GetByStudent(ctx, 5)
	require.NoError(t, err)
	assert.False(t, doc.IsManualEdit)
	assert.Equal(t, a, doc.Content)
}

func TestNilStudent_IsAuthError(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	err := m.Save(ctx, nil, "x")
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	_, err = m.Resolve(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	_, err = m.Regenerate(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestResolve_ConcurrentFirstCallsCreateOneDocument(t *testing.T) {
	m, repo := newManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := &models.Student{ID: 6, Grade: intp(2)}
			_, err := m.Resolve(ctx, st)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var n int64
	require.NoError(t, repo.db.Model(&Document{}).Where("student_id = ?", 6).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
