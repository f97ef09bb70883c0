package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/flashgen/question-service/internal/metrics"
	"github.com/flashgen/question-service/internal/question"
)

// Vote is one accepted feedback event.
type Vote struct {
	QuestionID question.ID
	Positive   bool
	At         time.Time
}

// Journal persists votes so the counters survive restarts.
type Journal interface {
	Append(ctx context.Context, vote Vote) error
	Replay(ctx context.Context, fn func(Vote) error) error
}

// Publisher announces new counts to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, id question.ID, counts Counts) error
}

// Service is the boundary around the Aggregator: it parses untyped caller
// input, records the vote and fans the result out to the journal and
// subscribers.
type Service struct {
	agg       *Aggregator
	journal   Journal
	publisher Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

type ServiceOptions struct {
	Journal   Journal
	Publisher Publisher
}

func NewService(agg *Aggregator, opts ServiceOptions, logger zerolog.Logger) *Service {
	if agg == nil {
		agg = NewAggregator()
	}
	return &Service{
		agg:       agg,
		journal:   opts.Journal,
		publisher: opts.Publisher,
		logger:    logger.With().Str("component", "feedback_service").Logger(),
		now:       time.Now,
	}
}

// Submit validates rawID and rawVote, then records the vote. Journal and
// publish failures are logged; the in-memory count is already updated.
func (s *Service) Submit(ctx context.Context, rawID string, rawVote json.RawMessage) (Counts, error) {
	id, err := question.ParseID(rawID)
	if err != nil {
		return Counts{}, err
	}
	positive, err := ParseVote(rawVote)
	if err != nil {
		return Counts{}, err
	}
	return s.Record(ctx, id, positive), nil
}

// Record adds an already-validated vote.
func (s *Service) Record(ctx context.Context, id question.ID, positive bool) Counts {
	counts := s.agg.AddFeedback(id, positive)
	metrics.FeedbackVotes.WithLabelValues(metrics.Polarity(positive)).Inc()

	if s.journal != nil {
		vote := Vote{QuestionID: id, Positive: positive, At: s.now().UTC()}
		if err := s.journal.Append(ctx, vote); err != nil {
			s.logger.Error().Err(err).Str("question_id", id.String()).Msg("feedback journal append failed")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, id, counts); err != nil {
			s.logger.Warn().Err(err).Str("question_id", id.String()).Msg("feedback publish failed")
		}
	}
	return counts
}

// Lookup returns the counts for rawID.
func (s *Service) Lookup(_ context.Context, rawID string) (Counts, error) {
	id, err := question.ParseID(rawID)
	if err != nil {
		return Counts{}, err
	}
	return s.agg.GetFeedback(id), nil
}

// Restore replays the journal into the aggregator. It must run before the
// service accepts votes.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if s.journal == nil {
		return 0, nil
	}
	n := 0
	err := s.journal.Replay(ctx, func(v Vote) error {
		s.agg.AddFeedback(v.QuestionID, v.Positive)
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("replay feedback journal: %w", err)
	}
	s.logger.Info().Int("votes", n).Int("questions", s.agg.Len()).Msg("feedback journal replayed")
	return n, nil
}
