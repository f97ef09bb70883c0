package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"

	"github.com/flashgen/question-service/internal/question"
)

var (
	// ErrInvalidIdentifier is returned when a question id is not a UUID.
	ErrInvalidIdentifier = question.ErrInvalidIdentifier
	// ErrInvalidFeedbackValue is returned when a vote is not a JSON boolean.
	ErrInvalidFeedbackValue = errors.New("feedback value must be a boolean")
)

// Counts is a snapshot of the votes recorded for one question.
type Counts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Aggregator counts votes per question. Counters only ever increase and
// records are never removed.
type Aggregator struct {
	mu      sync.Mutex
	records map[question.ID]*Counts
}

func NewAggregator() *Aggregator {
	return &Aggregator{records: make(map[question.ID]*Counts)}
}

// AddFeedback records one vote, creating the record on first use, and
// returns the counts after the increment.
func (a *Aggregator) AddFeedback(id question.ID, isPositive bool) Counts {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[id]
	if !ok {
		rec = &Counts{}
		a.records[id] = rec
	}
	if isPositive {
		rec.Positive++
	} else {
		rec.Negative++
	}
	return *rec
}

// GetFeedback returns a copy of the counts. Unknown ids yield zero counts and
// no record is created.
func (a *Aggregator) GetFeedback(id question.ID) Counts {
	a.mu.Lock()
	defer a.mu.Unlock()

	if rec, ok := a.records[id]; ok {
		return *rec
	}
	return Counts{}
}

// Len reports how many questions have at least one vote.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// ParseVote accepts exactly the JSON literals true and false.
func ParseVote(raw json.RawMessage) (bool, error) {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, ErrInvalidFeedbackValue
	}
}
