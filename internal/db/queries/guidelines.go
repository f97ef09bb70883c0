package queries

import (
	"context"
)

const searchGuidelineChunks = `
SELECT content
FROM guideline_chunks
WHERE search @@ plainto_tsquery('english', $1)
ORDER BY ts_rank(search, plainto_tsquery('english', $1)) DESC
LIMIT $2
`

type SearchGuidelineChunksParams struct {
	Query string
	Limit int32
}

func (q *Queries) SearchGuidelineChunks(ctx context.Context, arg SearchGuidelineChunksParams) ([]string, error) {
	return q.contents(ctx, searchGuidelineChunks, arg.Query, arg.Limit)
}

const randomGuidelineChunks = `
SELECT content
FROM guideline_chunks
ORDER BY random()
LIMIT $1
`

func (q *Queries) RandomGuidelineChunks(ctx context.Context, limit int32) ([]string, error) {
	return q.contents(ctx, randomGuidelineChunks, limit)
}

const insertGuidelineChunk = `
INSERT INTO guideline_chunks (section, content)
VALUES ($1, $2)
`

type InsertGuidelineChunkParams struct {
	Section string
	Content string
}

func (q *Queries) InsertGuidelineChunk(ctx context.Context, arg InsertGuidelineChunkParams) error {
	_, err := q.db.Exec(ctx, insertGuidelineChunk, arg.Section, arg.Content)
	return err
}

func (q *Queries) contents(ctx context.Context, sql string, args ...interface{}) ([]string, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		items = append(items, content)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
