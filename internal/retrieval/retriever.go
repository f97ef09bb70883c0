// Package retrieval finds guideline passages to ground generated questions.
package retrieval

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/flashgen/question-service/internal/db/queries"
	"github.com/flashgen/question-service/internal/question"
)

type chunkStore interface {
	SearchGuidelineChunks(ctx context.Context, arg queries.SearchGuidelineChunksParams) ([]string, error)
	RandomGuidelineChunks(ctx context.Context, limit int32) ([]string, error)
}

// Retriever ranks guideline chunks by full-text match against the topic
// label and falls back to random chunks when nothing matches.
type Retriever struct {
	store  chunkStore
	logger zerolog.Logger
}

func New(store chunkStore, logger zerolog.Logger) *Retriever {
	return &Retriever{
		store:  store,
		logger: logger.With().Str("component", "retriever").Logger(),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, topic question.Topic, k int) ([]string, error) {
	if k <= 0 {
		k = 1
	}
	chunks, err := r.store.SearchGuidelineChunks(ctx, queries.SearchGuidelineChunksParams{
		Query: topic.Label(),
		Limit: int32(k),
	})
	if err != nil {
		return nil, fmt.Errorf("search guideline chunks: %w", err)
	}
	if len(chunks) > 0 {
		return chunks, nil
	}

	r.logger.Debug().Str("topic", topic.String()).Msg("no ranked chunk, using random context")
	chunks, err = r.store.RandomGuidelineChunks(ctx, int32(k))
	if err != nil {
		return nil, fmt.Errorf("random guideline chunks: %w", err)
	}
	return chunks, nil
}
