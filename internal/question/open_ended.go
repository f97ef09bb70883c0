package question

import (
	"strconv"
	"strings"
)

// DefaultMinWords is the minimum answer length callers use when a source does
// not specify one. NewOpenEnded itself keeps whatever minimum it is given.
const DefaultMinWords = 50

// OpenEnded is graded by length and by the presence of required keywords.
type OpenEnded struct {
	Base
	keywords    []string
	modelAnswer string
	minWords    int
}

var _ Question = (*OpenEnded)(nil)

func NewOpenEnded(base Base, keywords []string, modelAnswer string, minWords int) *OpenEnded {
	return &OpenEnded{
		Base:        base,
		keywords:    append([]string(nil), keywords...),
		modelAnswer: modelAnswer,
		minWords:    minWords,
	}
}

func (q *OpenEnded) Kind() Kind { return KindOpenEnded }

func (q *OpenEnded) RequiredKeywords() []string {
	return append([]string(nil), q.keywords...)
}

func (q *OpenEnded) ModelAnswer() string { return q.modelAnswer }
func (q *OpenEnded) MinWords() int { return q.minWords }

func (q *OpenEnded) Validate() bool {
	return len(q.keywords) > 0 && wordCount(q.modelAnswer) >= q.minWords
}

func (q *OpenEnded) Format() string {
	return q.prompt + "\n\nPlease provide a detailed explanation (minimum " +
		strconv.Itoa(q.minWords) + " words)."
}

// IsCorrectAnswer requires at least MinWords words and every keyword as a
// case-insensitive substring. With no keywords the second check always
// passes, so only call this on questions that Validate.
func (q *OpenEnded) IsCorrectAnswer(response string) bool {
	if wordCount(response) < q.minWords {
		return false
	}
	lower := strings.ToLower(response)
	for _, kw := range q.keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

func (q *OpenEnded) sealed() {}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
