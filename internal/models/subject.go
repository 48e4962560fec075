package models

import (
	"strings"

	"github.com/withstudy/tutor/internal/apperr"
)

type Subject string

const (
	SubjectMath          Subject = "math"
	SubjectScience       Subject = "science"
	SubjectEnglish       Subject = "english"
	SubjectSocialStudies Subject = "social-studies"
	SubjectJapanese      Subject = "japanese"
)

type SubjectInfo struct {
	ID    Subject
	Name  string // English name used in generated text
	Label string // display label
	// Tutor is appended to the base tutor prompt for this subject.
	Tutor string
}

var subjectCatalog = []SubjectInfo{
	{
		ID:    SubjectMath,
		Name:  "Math",
		Label: "数学",
		Tutor: "You are a supportive middle-school math tutor. Use clear, step-by-step reasoning, show intermediary calculations, and connect ideas to real-world contexts when helpful.",
	},
	{
		ID:    SubjectScience,
		Name:  "Science",
		Label: "理科",
		Tutor: "You are a friendly middle-school science tutor. Explain scientific concepts with everyday examples, encourage curiosity, and highlight key vocabulary students should remember.",
	},
	{
		ID:    SubjectEnglish,
		Name:  "English",
		Label: "英語",
		Tutor: "You are an encouraging English tutor for Japanese middle-school students. Provide simple explanations, sample sentences, and pronunciation tips when helpful.",
	},
	{
		ID:    SubjectSocialStudies,
		Name:  "Social studies",
		Label: "社会",
		Tutor: "You are a knowledgeable social studies tutor. Summarize historical events, geography facts, and civics concepts clearly. Encourage students to think about causes and effects.",
	},
	{
		ID:    SubjectJapanese,
		Name:  "Japanese",
		Label: "国語",
		Tutor: "You are a thoughtful Japanese language tutor. Help students analyze passages, interpret kanji, and improve composition skills with structured guidance.",
	},
}

var subjectByID = func() map[Subject]SubjectInfo {
	m := make(map[Subject]SubjectInfo, len(subjectCatalog))
	for _, s := range subjectCatalog {
		m[s.ID] = s
	}
	return m
}()

// Subjects returns the catalog in display order.
func Subjects() []SubjectInfo {
	return append([]SubjectInfo(nil), subjectCatalog...)
}

// ParseSubject accepts only catalog ids.
func ParseSubject(raw string) (Subject, error) {
	s := Subject(strings.TrimSpace(raw))
	if _, ok := subjectByID[s]; !ok {
		return "", apperr.Validation("a valid subject identifier is required")
	}
	return s, nil
}

func (s Subject) Valid() bool {
	_, ok := subjectByID[s]
	return ok
}

func (s Subject) Info() SubjectInfo {
	if info, ok := subjectByID[s]; ok {
		return info
	}
	return SubjectInfo{ID: s, Name: string(s), Label: string(s)}
}
