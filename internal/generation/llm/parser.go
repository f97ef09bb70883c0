package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	questionPattern = regexp.MustCompile(`(?s)Question:\s*(.*?)(?:Options:|$)`)
	optionsPattern  = regexp.MustCompile(`(?s)Options:(.*?)(?:Correct answer:|$)`)
	answerPattern   = regexp.MustCompile(`Correct answer:\s*([A-D])`)
	optionLine      = regexp.MustCompile(`^([A-D])\.\s*(.*)$`)
)

// ErrUnparseable is returned when plain-text model output does not follow the
// Question/Options/Correct answer layout.
var ErrUnparseable = errors.New("unparseable model output")

// TextQuestion is a multiple choice question parsed from plain text.
type TextQuestion struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// ParseText reads the plain-text layout
//
//	Question: ...
//	Options:
//	A. ...
//	B. ...
//	C. ...
//	D. ...
//	Correct answer: B
//
// Anything up to an "OUTPUT:" marker is ignored. Exactly four options are required.
func ParseText(text string) (TextQuestion, error) {
	if i := strings.LastIndex(text, "OUTPUT:"); i >= 0 {
		text = text[i+len("OUTPUT:"):]
	}

	m := questionPattern.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return TextQuestion{}, fmt.Errorf("%w: missing question", ErrUnparseable)
	}
	prompt := strings.TrimSpace(m[1])

	var options []string
	if om := optionsPattern.FindStringSubmatch(text); om != nil {
		for _, line := range strings.Split(om[1], "\n") {
			if lm := optionLine.FindStringSubmatch(strings.TrimSpace(line)); lm != nil {
				options = append(options, strings.TrimSpace(lm[2]))
			}
		}
	}
	if len(options) != 4 {
		return TextQuestion{}, fmt.Errorf("%w: expected 4 options, got %d", ErrUnparseable, len(options))
	}

	am := answerPattern.FindStringSubmatch(text)
	if am == nil {
		return TextQuestion{}, fmt.Errorf("%w: missing correct answer", ErrUnparseable)
	}

	return TextQuestion{
		Prompt:       prompt,
		Options:      options,
		CorrectIndex: int(am[1][0] - 'A'),
	}, nil
}
