package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertQuestion = `
INSERT INTO questions (question_id, kind, topic, difficulty, payload)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (question_id) DO UPDATE
SET payload = EXCLUDED.payload
`

type UpsertQuestionParams struct {
	QuestionID pgtype.UUID
	Kind       string
	Topic      string
	Difficulty string
	Payload    []byte
}

func (q *Queries) UpsertQuestion(ctx context.Context, arg UpsertQuestionParams) error {
	_, err := q.db.Exec(ctx, upsertQuestion,
		arg.QuestionID,
		arg.Kind,
		arg.Topic,
		arg.Difficulty,
		arg.Payload,
	)
	return err
}

const getQuestion = `
SELECT question_id, kind, topic, difficulty, payload, created_at
FROM questions
WHERE question_id = $1
`

func (q *Queries) GetQuestion(ctx context.Context, questionID pgtype.UUID) (Question, error) {
	row := q.db.QueryRow(ctx, getQuestion, questionID)
	var i Question
	err := row.Scan(
		&i.QuestionID,
		&i.Kind,
		&i.Topic,
		&i.Difficulty,
		&i.Payload,
		&i.CreatedAt,
	)
	return i, err
}
