package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/flashgen/question-service/internal/db/queries"
	"github.com/flashgen/question-service/internal/generation"
	"github.com/flashgen/question-service/internal/question"
)

type questionStore interface {
	UpsertQuestion(ctx context.Context, arg queries.UpsertQuestionParams) error
	GetQuestion(ctx context.Context, questionID pgtype.UUID) (queries.Question, error)
}

// QuestionRepository is the Postgres catalog of every question served.
type QuestionRepository struct {
	store questionStore
}

func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// Save stores the question payload keyed by its id. Saving the same id twice
// overwrites the payload.
func (r *QuestionRepository) Save(ctx context.Context, q question.Question) error {
	payload, err := question.Marshal(q)
	if err != nil {
		return err
	}
	return r.store.UpsertQuestion(ctx, queries.UpsertQuestionParams{
		QuestionID: toPgUUID(q.ID()),
		Kind:       q.Kind().String(),
		Topic:      q.Topic().String(),
		Difficulty: q.Difficulty().String(),
		Payload:    payload,
	})
}

// Get loads a question by id; unknown ids match generation.ErrQuestionNotFound.
func (r *QuestionRepository) Get(ctx context.Context, id question.ID) (question.Question, error) {
	row, err := r.store.GetQuestion(ctx, toPgUUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generation.ErrQuestionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	q, err := question.Unmarshal(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode question %s: %w", id, err)
	}
	return q, nil
}

func toPgUUID(id question.ID) pgtype.UUID {
	return pgtype.UUID{Bytes: id.UUID(), Valid: true}
}
