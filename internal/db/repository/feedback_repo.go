package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/flashgen/question-service/internal/db/queries"
	"github.com/flashgen/question-service/internal/feedback"
	"github.com/flashgen/question-service/internal/question"
)

type feedbackStore interface {
	InsertFeedbackEvent(ctx context.Context, arg queries.InsertFeedbackEventParams) error
	ListFeedbackEvents(ctx context.Context) ([]queries.FeedbackEvent, error)
}

// FeedbackRepository is the append-only vote journal.
type FeedbackRepository struct {
	store feedbackStore
}

func NewFeedbackRepository(store feedbackStore) *FeedbackRepository {
	return &FeedbackRepository{store: store}
}

func (r *FeedbackRepository) Append(ctx context.Context, vote feedback.Vote) error {
	return r.store.InsertFeedbackEvent(ctx, queries.InsertFeedbackEventParams{
		QuestionID: toPgUUID(vote.QuestionID),
		IsPositive: vote.Positive,
		CreatedAt:  pgtype.Timestamptz{Time: vote.At, Valid: !vote.At.IsZero()},
	})
}

// Replay calls fn for every stored vote in insertion order and stops at the
// first error.
func (r *FeedbackRepository) Replay(ctx context.Context, fn func(feedback.Vote) error) error {
	events, err := r.store.ListFeedbackEvents(ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		id, err := question.IDFromUUID(uuid.UUID(ev.QuestionID.Bytes))
		if err != nil {
			return fmt.Errorf("feedback event %d: %w", ev.EventID, err)
		}
		if err := fn(feedback.Vote{QuestionID: id, Positive: ev.IsPositive, At: ev.CreatedAt.Time}); err != nil {
			return err
		}
	}
	return nil
}
