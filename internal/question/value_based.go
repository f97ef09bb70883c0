package question

import (
	"math"
	"strconv"
	"strings"
)

// ValueBased asks for a number, accepted within tolerance of the expected value.
type ValueBased struct {
	Base
	expected   float64
	unit       string
	tolerance  float64
	valueRange Range
}

var _ Question = (*ValueBased)(nil)

func NewValueBased(base Base, expected float64, unit string, tolerance float64, valueRange Range) *ValueBased {
	return &ValueBased{
		Base:       base,
		expected:   expected,
		unit:       unit,
		tolerance:  tolerance,
		valueRange: valueRange,
	}
}

func (q *ValueBased) Kind() Kind { return KindValueBased }

func (q *ValueBased) ExpectedValue() float64 { return q.expected }
func (q *ValueBased) Unit() string { return q.unit }
func (q *ValueBased) Tolerance() float64 { return q.tolerance }
func (q *ValueBased) ValueRange() Range { return q.valueRange }

// Validate only checks that the expected value sits inside the range. The
// tolerance window is not compared against the range bounds.
func (q *ValueBased) Validate() bool {
	return q.valueRange.Min <= q.expected && q.expected <= q.valueRange.Max
}

func (q *ValueBased) Format() string {
	return q.prompt + " (Answer in " + q.unit + ")"
}

// IsCorrectAnswer accepts values whose distance from the expected value is at
// most the tolerance, boundary included.
func (q *ValueBased) IsCorrectAnswer(response string) bool {
	value, err := strconv.ParseFloat(strings.TrimSpace(response), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	return math.Abs(value-q.expected) <= q.tolerance
}

func (q *ValueBased) sealed() {}
