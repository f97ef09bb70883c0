package queries

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Question struct {
	QuestionID pgtype.UUID
	Kind       string
	Topic      string
	Difficulty string
	Payload    []byte
	CreatedAt  pgtype.Timestamptz
}

type FeedbackEvent struct {
	EventID    int64
	QuestionID pgtype.UUID
	IsPositive bool
	CreatedAt  pgtype.Timestamptz
}
