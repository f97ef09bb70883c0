package question

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidIdentifier = errors.New("invalid question identifier: must be a UUID")
	ErrInvalidDifficulty = errors.New("invalid difficulty level")
	ErrInvalidTopic      = errors.New("invalid topic")
	ErrUnknownKind       = errors.New("unknown question kind")
)

// ID uniquely identifies a question. The zero value is not a valid ID.
type ID struct {
	u uuid.UUID
}

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID{u: uuid.New()}
}

// ParseID is the only way to turn caller input into an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || u == uuid.Nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return ID{u: u}, nil
}

// IDFromUUID wraps an existing UUID.
func IDFromUUID(u uuid.UUID) (ID, error) {
	if u == uuid.Nil {
		return ID{}, ErrInvalidIdentifier
	}
	return ID{u: u}, nil
}

func (id ID) String() string { return id.u.String() }
func (id ID) UUID() uuid.UUID { return id.u }
func (id ID) IsZero() bool { return id.u == uuid.Nil }

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.u.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Difficulty is ordered: beginner < intermediate < advanced < expert.
type Difficulty int

const (
	DifficultyBeginner Difficulty = iota + 1
	DifficultyIntermediate
	DifficultyAdvanced
	DifficultyExpert
)

var difficultyNames = map[Difficulty]string{
	DifficultyBeginner:     "beginner",
	DifficultyIntermediate: "intermediate",
	DifficultyAdvanced:     "advanced",
	DifficultyExpert:       "expert",
}

// Difficulties lists every level in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert}
}

func ParseDifficulty(s string) (Difficulty, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for d, name := range difficultyNames {
		if name == needle {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyNames[d]
	return ok
}

// Less reports whether d is an easier level than other.
func (d Difficulty) Less(other Difficulty) bool { return d < other }

func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, ErrInvalidDifficulty
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(b []byte) error {
	parsed, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Topic is one of the heart-failure guideline subjects questions are drawn from.
type Topic string

const (
	TopicDefinitionAndClassification Topic = "definition_and_classification"
	TopicDiagnosis                   Topic = "diagnosis"
	TopicAssessmentOfHFSeverity      Topic = "assessment_of_hf_severity"
	TopicImagingTechniques           Topic = "imaging_techniques"
	TopicDiagnosticTests             Topic = "diagnostic_tests"
	TopicPharmacologicalTherapy      Topic = "pharmacological_therapy"
	TopicDeviceTherapy               Topic = "device_therapy"
	TopicComorbidities               Topic = "comorbidities"
	TopicPrevention                  Topic = "prevention"
	TopicEndOfLifeCare               Topic = "end_of_life_care"
)

var topicLabels = map[Topic]string{
	TopicDefinitionAndClassification: "Definition and classification of heart failure",
	TopicDiagnosis:                   "Diagnosis of heart failure",
	TopicAssessmentOfHFSeverity:      "Assessment of heart failure severity",
	TopicImagingTechniques:           "Cardiac imaging techniques",
	TopicDiagnosticTests:             "Diagnostic tests",
	TopicPharmacologicalTherapy:      "Pharmacological therapy",
	TopicDeviceTherapy:               "Device therapy",
	TopicComorbidities:               "Comorbidities",
	TopicPrevention:                  "Prevention",
	TopicEndOfLifeCare:               "End-of-life care",
}

// Topics returns all topics in a stable order.
func Topics() []Topic {
	return []Topic{
		TopicDefinitionAndClassification,
		TopicDiagnosis,
		TopicAssessmentOfHFSeverity,
		TopicImagingTechniques,
		TopicDiagnosticTests,
		TopicPharmacologicalTherapy,
		TopicDeviceTherapy,
		TopicComorbidities,
		TopicPrevention,
		TopicEndOfLifeCare,
	}
}

func ParseTopic(s string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}
	return t, nil
}

func (t Topic) Valid() bool {
	_, ok := topicLabels[t]
	return ok
}

// Label is the human-readable subject, used in prompts and search queries.
func (t Topic) Label() string {
	if l, ok := topicLabels[t]; ok {
		return l
	}
	return string(t)
}

func (t Topic) String() string { return string(t) }

// Range is an acceptable numeric interval with its unit.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// Kind tags the question variant.
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindValueBased     Kind = "value_based"
	KindOpenEnded      Kind = "open_ended"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMultipleChoice, KindValueBased, KindOpenEnded:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string { return string(k) }

// Kinds lists the supported variants.
func Kinds() []Kind {
	return []Kind{KindMultipleChoice, KindValueBased, KindOpenEnded}
}

// Base carries the attributes shared by every variant. They are fixed at
// construction.
type Base struct {
	id          ID
	prompt      string
	difficulty  Difficulty
	topic       Topic
	explanation string
}

// NewBase assembles the common attributes. The id must come from NewID or ParseID.
func NewBase(id ID, prompt string, difficulty Difficulty, topic Topic, explanation string) Base {
	return Base{
		id:          id,
		prompt:      prompt,
		difficulty:  difficulty,
		topic:       topic,
		explanation: explanation,
	}
}

func (b Base) ID() ID { return b.id }
func (b Base) Prompt() string { return b.prompt }
func (b Base) Difficulty() Difficulty { return b.difficulty }
func (b Base) Topic() Topic { return b.topic }
func (b Base) Explanation() string { return b.explanation }

// Question is implemented only by *MultipleChoice, *ValueBased and *OpenEnded.
type Question interface {
	ID() ID
	Prompt() string
	Difficulty() Difficulty
	Topic() Topic
	Explanation() string
	Kind() Kind

	// Validate reports whether the question is structurally sound.
	Validate() bool
	// Format renders the question for a learner.
	Format() string
	// IsCorrectAnswer grades a free-text response. Ungradeable input is wrong.
	IsCorrectAnswer(response string) bool

	sealed()
}
