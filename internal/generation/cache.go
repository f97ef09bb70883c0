package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/flashgen/question-service/internal/question"
)

const defaultKeyPrefix = "question"

// Pool is a Redis-backed stock of pre-generated questions, one list per
// topic, difficulty and kind. Served questions are popped so a learner does
// not see the same cached item twice.
type Pool struct {
	client *redis.Client
	prefix string
}

var _ QuestionPool = (*Pool)(nil)

func NewPool(client *redis.Client, prefix string) *Pool {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Pool{client: client, prefix: prefix}
}

// Key is question:{topic}:{difficulty}:{kind}.
func (p *Pool) Key(req Request) string {
	return fmt.Sprintf("%s:%s:%s:%s", p.prefix, req.Topic, req.Difficulty, req.Kind)
}

func (p *Pool) Push(ctx context.Context, req Request, q question.Question) error {
	data, err := question.Marshal(q)
	if err != nil {
		return err
	}
	return p.client.RPush(ctx, p.Key(req), data).Err()
}

// Pop returns nil, nil when the pool is empty.
func (p *Pool) Pop(ctx context.Context, req Request) (question.Question, error) {
	data, err := p.client.LPop(ctx, p.Key(req)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return question.Unmarshal(data)
}

func (p *Pool) Size(ctx context.Context, req Request) (int64, error) {
	return p.client.LLen(ctx, p.Key(req)).Result()
}
