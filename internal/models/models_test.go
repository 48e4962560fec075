package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withstudy/tutor/internal/apperr"
)

func TestParseSubject(t *testing.T) {
	for _, raw := range []string{"math", "science", "english", "social-studies", " japanese "} {
		s, err := ParseSubject(raw)
		require.NoError(t, err, raw)
		assert.True(t, s.Valid())
	}

	_, err := ParseSubject("history")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = ParseSubject("")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestProfile_CopiesAndCompares(t *testing.T) {
	grade := 2
	math := SubjectMath
	st := &Student{Grade: &grade, FavoriteSubject: &math}

	snap := st.Profile()
	assert.True(t, snap.Equal(st.Profile()))

	// the snapshot does not alias the student
	*st.Grade = 3
	assert.Equal(t, 2, *snap.Grade)
	assert.False(t, snap.Equal(st.Profile()))

	score := 80
	st.MockExamScore = &score
	withScore := st.Profile()
	st.MockExamScore = nil
	assert.False(t, withScore.Equal(st.Profile()))

	assert.True(t, ProfileSnapshot{}.Equal(ProfileSnapshot{}))
}
