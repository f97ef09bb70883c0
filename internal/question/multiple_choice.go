package question

import (
	"strconv"
	"strings"
)

// MultipleChoice holds ordered options and the zero-based index of the right one.
type MultipleChoice struct {
	Base
	options      []string
	correctIndex int
}

var _ Question = (*MultipleChoice)(nil)

// NewMultipleChoice does not check the index against the options; Validate does.
func NewMultipleChoice(base Base, options []string, correctIndex int) *MultipleChoice {
	return &MultipleChoice{
		Base:         base,
		options:      append([]string(nil), options...),
		correctIndex: correctIndex,
	}
}

func (q *MultipleChoice) Kind() Kind { return KindMultipleChoice }

// Options returns a copy of the answer options in display order.
func (q *MultipleChoice) Options() []string {
	return append([]string(nil), q.options...)
}

func (q *MultipleChoice) CorrectOptionIndex() int { return q.correctIndex }

func (q *MultipleChoice) Validate() bool {
	return len(q.options) > 1 && q.correctIndex >= 0 && q.correctIndex < len(q.options)
}

func (q *MultipleChoice) Format() string {
	var b strings.Builder
	b.WriteString(q.prompt)
	b.WriteString("\n\n")
	for i, option := range q.options {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(option)
		b.WriteString("\n")
	}
	return b.String()
}

// IsCorrectAnswer expects the 1-based position of the chosen option.
func (q *MultipleChoice) IsCorrectAnswer(response string) bool {
	chosen, err := strconv.ParseInt(strings.TrimSpace(response), 10, 64)
	if err != nil {
		return false
	}
	return chosen-1 == int64(q.correctIndex)
}

func (q *MultipleChoice) sealed() {}
