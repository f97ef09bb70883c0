package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertFeedbackEvent = `
INSERT INTO feedback_events (question_id, is_positive, created_at)
VALUES ($1, $2, $3)
`

type InsertFeedbackEventParams struct {
	QuestionID pgtype.UUID
	IsPositive bool
	CreatedAt  pgtype.Timestamptz
}

func (q *Queries) InsertFeedbackEvent(ctx context.Context, arg InsertFeedbackEventParams) error {
	_, err := q.db.Exec(ctx, insertFeedbackEvent, arg.QuestionID, arg.IsPositive, arg.CreatedAt)
	return err
}

const listFeedbackEvents = `
SELECT event_id, question_id, is_positive, created_at
FROM feedback_events
ORDER BY event_id
`

func (q *Queries) ListFeedbackEvents(ctx context.Context) ([]FeedbackEvent, error) {
	rows, err := q.db.Query(ctx, listFeedbackEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FeedbackEvent
	for rows.Next() {
		var i FeedbackEvent
		if err := rows.Scan(&i.EventID, &i.QuestionID, &i.IsPositive, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
