package question

import (
	"encoding/json"
	"fmt"
)

// envelope is the stored/cached JSON shape of any question variant.
type envelope struct {
	Type        Kind       `json:"type"`
	ID          ID         `json:"id"`
	Prompt      string     `json:"prompt"`
	Difficulty  Difficulty `json:"difficulty"`
	Topic       Topic      `json:"topic"`
	Explanation string     `json:"explanation"`

	Options            []string `json:"options,omitempty"`
	CorrectOptionIndex *int     `json:"correct_option_index,omitempty"`

	ExpectedValue *float64 `json:"expected_value,omitempty"`
	Unit          string   `json:"unit,omitempty"`
	Tolerance     *float64 `json:"tolerance,omitempty"`
	ValueRange    *Range   `json:"value_range,omitempty"`

	RequiredKeywords []string `json:"required_keywords,omitempty"`
	ModelAnswer      string   `json:"model_answer,omitempty"`
	MinWords         *int     `json:"min_words,omitempty"`
}

// Marshal encodes a question with a "type" discriminator.
func Marshal(q Question) ([]byte, error) {
	env := envelope{
		Type:        q.Kind(),
		ID:          q.ID(),
		Prompt:      q.Prompt(),
		Difficulty:  q.Difficulty(),
		Topic:       q.Topic(),
		Explanation: q.Explanation(),
	}

	switch v := q.(type) {
	case *MultipleChoice:
		idx := v.correctIndex
		env.Options = v.Options()
		env.CorrectOptionIndex = &idx
	case *ValueBased:
		expected, tolerance, rng := v.expected, v.tolerance, v.valueRange
		env.ExpectedValue = &expected
		env.Unit = v.unit
		env.Tolerance = &tolerance
		env.ValueRange = &rng
	case *OpenEnded:
		env.RequiredKeywords = v.RequiredKeywords()
		env.ModelAnswer = v.modelAnswer
		minWords := v.minWords
		env.MinWords = &minWords
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, q)
	}

	return json.Marshal(env)
}

// Unmarshal decodes what Marshal produced.
func Unmarshal(data []byte) (Question, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}
	// The variant is checked first so foreign payloads report ErrUnknownKind.
	if _, err := ParseKind(string(env.Type)); err != nil {
		return nil, err
	}
	if env.ID.IsZero() {
		return nil, ErrInvalidIdentifier
	}
	if !env.Topic.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, env.Topic)
	}

	base := NewBase(env.ID, env.Prompt, env.Difficulty, env.Topic, env.Explanation)

	switch env.Type {
	case KindMultipleChoice:
		if env.CorrectOptionIndex == nil {
			return nil, fmt.Errorf("decode question: missing correct_option_index")
		}
		return NewMultipleChoice(base, env.Options, *env.CorrectOptionIndex), nil
	case KindValueBased:
		if env.ExpectedValue == nil || env.Tolerance == nil || env.ValueRange == nil {
			return nil, fmt.Errorf("decode question: missing expected_value, tolerance or value_range")
		}
		return NewValueBased(base, *env.ExpectedValue, env.Unit, *env.Tolerance, *env.ValueRange), nil
	case KindOpenEnded:
		minWords := DefaultMinWords
		if env.MinWords != nil {
			minWords = *env.MinWords
		}
		return NewOpenEnded(base, env.RequiredKeywords, env.ModelAnswer, minWords), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}
