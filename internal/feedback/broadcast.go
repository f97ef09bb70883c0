package feedback

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/flashgen/question-service/internal/question"
	ws "github.com/flashgen/question-service/pkg/http/ws"
)

const defaultChannel = "feedback:updates"

// RedisPublisher announces vote counts on a Redis Pub/Sub channel so every
// API instance can push them to its own WebSocket clients.
type RedisPublisher struct {
	redis   *redis.Client
	channel string
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = defaultChannel
	}
	return &RedisPublisher{redis: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, id question.ID, counts Counts) error {
	data, err := json.Marshal(ws.FeedbackUpdatePayload{
		QuestionID: id.String(),
		Positive:   counts.Positive,
		Negative:   counts.Negative,
	})
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, p.channel, data).Err()
}

type hub interface {
	Publish(questionID string, msg ws.Message) int
}

// Broadcaster listens for feedback updates and forwards them to WebSocket clients.
type Broadcaster struct {
	redis   *redis.Client
	hub     hub
	channel string
	logger  zerolog.Logger
}

func NewBroadcaster(client *redis.Client, h hub, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = defaultChannel
	}
	return &Broadcaster{
		redis:   client,
		hub:     h,
		channel: channel,
		logger:  logger.With().Str("component", "feedback_broadcaster").Logger(),
	}
}

// Run subscribes to the update channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription so publishes right after Run starts are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var evt ws.FeedbackUpdatePayload
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode feedback update payload")
		return
	}

	raw, err := json.Marshal(evt)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to marshal feedback WS payload")
		return
	}

	delivered := b.hub.Publish(evt.QuestionID, ws.Message{
		Type:    ws.TypeFeedbackUpdate,
		Payload: raw,
	})
	b.logger.Debug().Str("question_id", evt.QuestionID).Int("delivered", delivered).Msg("feedback update forwarded")
}
