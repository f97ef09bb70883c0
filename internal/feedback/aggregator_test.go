package feedback

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashgen/question-service/internal/question"
)

func TestAggregatorCountsVotes(t *testing.T) {
	agg := NewAggregator()
	id := question.NewID()

	agg.AddFeedback(id, true)
	agg.AddFeedback(id, true)
	agg.AddFeedback(id, false)

	assert.Equal(t, Counts{Positive: 2, Negative: 1}, agg.GetFeedback(id))
}

func TestAggregatorUnknownIDDoesNotCreateRecord(t *testing.T) {
	agg := NewAggregator()

	assert.Equal(t, Counts{}, agg.GetFeedback(question.NewID()))
	assert.Equal(t, 0, agg.Len())

	agg.AddFeedback(question.NewID(), false)
	assert.Equal(t, 1, agg.Len())
}

func TestAggregatorReturnsSnapshots(t *testing.T) {
	agg := NewAggregator()
	id := question.NewID()
	agg.AddFeedback(id, true)

	snapshot := agg.GetFeedback(id)
	snapshot.Positive = 100

	assert.Equal(t, 1, agg.GetFeedback(id).Positive)
}

func TestAggregatorConcurrentVotes(t *testing.T) {
	agg := NewAggregator()
	ids := []question.ID{question.NewID(), question.NewID()}

	const workers, perWorker = 16, 250
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := ids[i%len(ids)]
				agg.AddFeedback(id, w%2 == 0)
				_ = agg.GetFeedback(id)
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, id := range ids {
		c := agg.GetFeedback(id)
		total += c.Positive + c.Negative
	}
	assert.Equal(t, workers*perWorker, total)

	first := agg.GetFeedback(ids[0])
	assert.Equal(t, workers/2*perWorker/2, first.Positive)
	assert.Equal(t, workers/2*perWorker/2, first.Negative)
}

func TestAggregatorIsMonotonic(t *testing.T) {
	agg := NewAggregator()
	id := question.NewID()

	prev := agg.GetFeedback(id)
	for i := 0; i < 20; i++ {
		agg.AddFeedback(id, i%3 == 0)
		cur := agg.GetFeedback(id)
		assert.GreaterOrEqual(t, cur.Positive, prev.Positive)
		assert.GreaterOrEqual(t, cur.Negative, prev.Negative)
		assert.Equal(t, prev.Positive+prev.Negative+1, cur.Positive+cur.Negative)
		prev = cur
	}
}

func TestParseVote(t *testing.T) {
	v, err := ParseVote(json.RawMessage("true"))
	require.NoError(t, err)
	assert.True(t, v)

	v, err = ParseVote(json.RawMessage(" false "))
	require.NoError(t, err)
	assert.False(t, v)

	for _, raw := range []string{`"yes"`, `"true"`, `1`, `0`, `null`, `{}`, ``, `True`} {
		_, err := ParseVote(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidFeedbackValue, raw)
	}
}
