package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextValid(t *testing.T) {
	out := `
        Question: What is the capital of France?
        Options:
        A. London
        B. Paris
        C. Berlin
        D. Madrid
        Correct answer: B
        `
	q, err := ParseText(out)
	require.NoError(t, err)
	assert.Equal(t, "What is the capital of France?", q.Prompt)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, 1, q.CorrectIndex)
}

func TestParseTextSkipsInstructionEcho(t *testing.T) {
	out := "Question: [Write your question here]\nOptions:\nA. [First]\nOUTPUT:\nQuestion: Which drug class?\nOptions:\nA. ACEi\nB. ARB\nC. MRA\nD. SGLT2i\nCorrect answer: D"
	q, err := ParseText(out)
	require.NoError(t, err)
	assert.Equal(t, "Which drug class?", q.Prompt)
	assert.Equal(t, 3, q.CorrectIndex)
}

func TestParseTextInvalid(t *testing.T) {
	cases := []string{
		"Invalid format",
		"Question: Q?\nOptions:\nA. a\nB. b\nC. c\nCorrect answer: A",
		"Question: Q?\nOptions:\nA. a\nB. b\nC. c\nD. d\n",
		"Question: Q?\nOptions:\nA. a\nB. b\nC. c\nD. d\nCorrect answer: E",
		"Question:\nOptions:\nA. a\nB. b\nC. c\nD. d\nCorrect answer: A",
	}
	for _, c := range cases {
		_, err := ParseText(c)
		assert.ErrorIs(t, err, ErrUnparseable, c)
	}
}
