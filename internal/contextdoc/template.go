package contextdoc

import (
	"fmt"
	"strings"
	"time"

	"github.com/withstudy/tutor/internal/models"
)

// DriftMarker starts every note appended to a manually edited document when
// the profile changes. A note is:
//
//	\n\n---\n[profile-update 2026-04-01T09:00:00+09:00]\n- grade: 2 -> 3\n
//
// one "- field: old -> new" line per changed field, unset values as "unset".
const DriftMarker = "[profile-update "

// Baseline renders the generated document for p. Unset fields are left out.
func Baseline(p models.ProfileSnapshot) string {
	var b strings.Builder
	b.WriteString("# Student profile\n")
	if p.Grade != nil {
		fmt.Fprintf(&b, "- Grade: %d (%s)\n", *p.Grade, gradeLabel(*p.Grade))
	}
	if p.FavoriteSubject != nil {
		info := p.FavoriteSubject.Info()
		fmt.Fprintf(&b, "- Favorite subject: %s (%s)\n", info.Name, info.Label)
	}
	if p.MockExamScore != nil {
		fmt.Fprintf(&b, "- Latest mock exam score: %d/100\n", *p.MockExamScore)
	}
	b.WriteString("\n")
	b.WriteString("Adapt explanations to this student's level. ")
	if p.FavoriteSubject != nil {
		fmt.Fprintf(&b, "Build on their confidence in %s when drawing analogies. ", strings.ToLower(p.FavoriteSubject.Info().Name))
	}
	if p.MockExamScore != nil {
		b.WriteString(scoreGuidance(*p.MockExamScore))
	}
	return strings.TrimRight(b.String(), " ") + "\n"
}

// DriftNote renders the note appended to a manual document when the profile
// moved from old to cur.
func DriftNote(old, cur models.ProfileSnapshot, at time.Time) string {
	var b strings.Builder
	b.WriteString("\n\n---\n")
	b.WriteString(DriftMarker)
	b.WriteString(at.Format(time.RFC3339))
	b.WriteString("]\n")
	if !eqPtr(old.Grade, cur.Grade) {
		fmt.Fprintf(&b, "- grade: %s -> %s\n", intOrUnset(old.Grade), intOrUnset(cur.Grade))
	}
	if !eqSubjectPtr(old.FavoriteSubject, cur.FavoriteSubject) {
		fmt.Fprintf(&b, "- favorite subject: %s -> %s\n", subjectOrUnset(old.FavoriteSubject), subjectOrUnset(cur.FavoriteSubject))
	}
	if !eqPtr(old.MockExamScore, cur.MockExamScore) {
		fmt.Fprintf(&b, "- mock exam score: %s -> %s\n", intOrUnset(old.MockExamScore), intOrUnset(cur.MockExamScore))
	}
	return b.String()
}

func gradeLabel(g int) string {
	switch g {
	case 1:
		return "junior high school, 1st year"
	case 2:
		return "junior high school, 2nd year"
	case 3:
		return "junior high school, 3rd year"
	default:
		return fmt.Sprintf("year %d", g)
	}
}

func scoreGuidance(score int) string {
	switch {
	case score >= 80:
		return "They score well on mock exams; offer challenge problems once the basics are clear."
	case score >= 50:
		return "Their mock exam results are average; reinforce core concepts before moving on."
	default:
		return "They find mock exams difficult; go slowly and check understanding often."
	}
}

func intOrUnset(v *int) string {
	if v == nil {
		return "unset"
	}
	return fmt.Sprintf("%d", *v)
}

func subjectOrUnset(v *models.Subject) string {
	if v == nil {
		return "unset"
	}
	return string(*v)
}

func eqPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqSubjectPtr(a, b *models.Subject) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
