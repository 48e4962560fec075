package contextdoc

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/withstudy/tutor/internal/models"
)

func TestBaseline_Deterministic(t *testing.T) {
	p := models.ProfileSnapshot{Grade: intp(3), FavoriteSubject: subj(models.SubjectEnglish), MockExamScore: intp(91)}

	a := Baseline(p)
	assert.Equal(t, a, Baseline(p))
	assert.Contains(t, a, "Grade: 3 (junior high school, 3rd year)")
	assert.Contains(t, a, "Favorite subject: English (英語)")
	assert.Contains(t, a, "Latest mock exam score: 91/100")
	assert.Contains(t, a, "challenge problems")
}

func TestDriftNote_ListsOnlyChangedFields(t *testing.T) {
	old := models.ProfileSnapshot{Grade: intp(2), FavoriteSubject: subj(models.SubjectMath)}
	cur := models.ProfileSnapshot{Grade: intp(2), FavoriteSubject: subj(models.SubjectJapanese), MockExamScore: intp(60)}
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	note := DriftNote(old, cur, at)

	assert.True(t, strings.HasPrefix(note, "\n\n---\n[profile-update 2026-04-01T09:00:00Z]\n"))
	assert.Contains(t, note, "- favorite subject: math -> japanese\n")
	assert.Contains(t, note, "- mock exam score: unset -> 60\n")
	assert.NotContains(t, note, "- grade:")
}
