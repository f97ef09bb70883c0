// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestionsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flashgen",
		Name:      "questions_generated_total",
		Help:      "Questions produced by the model, by kind and outcome.",
	}, []string{"kind", "outcome"})

	PoolLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flashgen",
		Name:      "pool_lookups_total",
		Help:      "Pool lookups by result (hit, miss, error).",
	}, []string{"result"})

	AnswersGraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flashgen",
		Name:      "answers_graded_total",
		Help:      "Graded learner responses by kind and correctness.",
	}, []string{"kind", "correct"})

	FeedbackVotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flashgen",
		Name:      "feedback_votes_total",
		Help:      "Accepted feedback votes by polarity.",
	}, []string{"polarity"})
)

// Polarity labels a vote.
func Polarity(positive bool) string {
	if positive {
		return "positive"
	}
	return "negative"
}
