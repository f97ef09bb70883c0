package llm

import (
	"fmt"
	"strings"

	"github.com/flashgen/question-service/internal/question"
)

const systemPrompt = "You write flashcard questions for clinicians studying the heart failure guidelines. " +
	"Only use facts supported by the provided guideline context. Respond with JSON matching the given schema."

var kindInstructions = map[question.Kind]string{
	question.KindMultipleChoice: "Write a multiple choice question with exactly four options. " +
		"Set correct_option to the 1-based position of the single correct option.",
	question.KindValueBased: "Write a question whose answer is a single number. " +
		"Give the expected value, its unit, an acceptable tolerance, and the plausible range (range_min, range_max) " +
		"that contains the expected value.",
	question.KindOpenEnded: "Write an open question that needs a short written answer. " +
		"Give a model answer, the keywords a correct answer must mention, and the minimum number of words expected.",
}

var difficultyHints = map[question.Difficulty]string{
	question.DifficultyBeginner:     "Target medical students: test a core definition or headline recommendation.",
	question.DifficultyIntermediate: "Target junior doctors: test applying a recommendation to a typical patient.",
	question.DifficultyAdvanced:     "Target registrars: test thresholds, contraindications or drug choices.",
	question.DifficultyExpert:       "Target specialists: test nuanced or conflicting recommendations and evidence levels.",
}

func buildPrompt(topic question.Topic, difficulty question.Difficulty, kind question.Kind, passages []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic.Label())
	fmt.Fprintf(&b, "Difficulty: %s. %s\n\n", difficulty, difficultyHints[difficulty])
	b.WriteString(kindInstructions[kind])
	b.WriteString("\n\nContext:\n")
	if len(passages) == 0 {
		b.WriteString("(no guideline excerpt available; rely on the current ESC heart failure guideline)\n")
	}
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(p))
	}
	return b.String()
}
