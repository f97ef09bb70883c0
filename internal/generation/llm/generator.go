package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/flashgen/question-service/internal/generation"
	"github.com/flashgen/question-service/internal/question"
)

// Config holds connection details for the chat completion backend.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
	// TopK is how many guideline chunks are placed in the prompt.
	TopK int
}

// Retriever returns guideline passages relevant to a topic.
type Retriever interface {
	Retrieve(ctx context.Context, topic question.Topic, k int) ([]string, error)
}

// Generator implements generation.Model on top of an OpenAI-compatible API.
type Generator struct {
	client    *openai.Client
	config    Config
	retriever Retriever
	logger    zerolog.Logger
}

func NewGenerator(cfg Config, retriever Retriever, logger zerolog.Logger) (*Generator, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("llm: api key or base url is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client:    openai.NewClientWithConfig(clientCfg),
		config:    cfg,
		retriever: retriever,
		logger:    logger.With().Str("component", "llm_generator").Logger(),
	}, nil
}

// Generate asks the model for one question of the requested kind, grounded in
// retrieved guideline context.
func (g *Generator) Generate(ctx context.Context, req generation.Request) (question.Question, error) {
	kind := req.Kind
	if kind == "" {
		kind = question.KindMultipleChoice
	}
	schema, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", question.ErrUnknownKind, kind)
	}

	passages := g.retrieve(ctx, req.Topic)

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	schemaBytes, err := json.Marshal(schema.Wire())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req.Topic, req.Difficulty, kind, passages)},
		},
		MaxCompletionTokens: g.config.MaxTokens,
		Temperature:         g.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Schema: json.RawMessage(schemaBytes),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", generation.ErrInvalidGenerated)
	}

	content := resp.Choices[0].Message.Content
	g.logger.Debug().
		Str("topic", req.Topic.String()).
		Str("kind", kind.String()).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("model responded")

	q, err := decode(kind, req, content)
	if err != nil {
		g.logger.Warn().Err(err).Str("content", truncate(content, 512)).Msg("unusable model output")
		return nil, err
	}
	return q, nil
}

// retrieve degrades to an empty context rather than failing generation.
func (g *Generator) retrieve(ctx context.Context, topic question.Topic) []string {
	if g.retriever == nil {
		return nil
	}
	passages, err := g.retriever.Retrieve(ctx, topic, g.config.TopK)
	if err != nil {
		g.logger.Warn().Err(err).Str("topic", topic.String()).Msg("guideline retrieval failed")
		return nil
	}
	return passages
}

func decode(kind question.Kind, req generation.Request, content string) (question.Question, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") {
		return decodeStructured(kind, req, json.RawMessage(trimmed))
	}
	if kind != question.KindMultipleChoice {
		return nil, fmt.Errorf("%w: expected JSON for %s", generation.ErrInvalidGenerated, kind)
	}
	parsed, err := ParseText(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidGenerated, err)
	}
	base := question.NewBase(question.NewID(), parsed.Prompt, req.Difficulty, req.Topic, "")
	return question.NewMultipleChoice(base, parsed.Options, parsed.CorrectIndex), nil
}

func decodeStructured(kind question.Kind, req generation.Request, raw json.RawMessage) (question.Question, error) {
	if err := validateOutput(schemas[kind], raw); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidGenerated, err)
	}

	var out output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidGenerated, err)
	}
	base := question.NewBase(question.NewID(), strings.TrimSpace(out.Prompt), req.Difficulty, req.Topic, strings.TrimSpace(out.Explanation))

	switch kind {
	case question.KindMultipleChoice:
		return question.NewMultipleChoice(base, out.Options, out.CorrectOption-1), nil
	case question.KindValueBased:
		return question.NewValueBased(base, out.ExpectedValue, out.Unit, out.Tolerance,
			question.Range{Min: out.RangeMin, Max: out.RangeMax, Unit: out.Unit}), nil
	default:
		return question.NewOpenEnded(base, out.RequiredKeywords, out.ModelAnswer, out.MinWords), nil
	}
}

// output is the union of the per-kind response schemas.
type output struct {
	Prompt      string `json:"prompt"`
	Explanation string `json:"explanation"`

	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`

	ExpectedValue float64 `json:"expected_value"`
	Unit          string  `json:"unit"`
	Tolerance     float64 `json:"tolerance"`
	RangeMin      float64 `json:"range_min"`
	RangeMax      float64 `json:"range_max"`

	RequiredKeywords []string `json:"required_keywords"`
	ModelAnswer      string   `json:"model_answer"`
	MinWords         int      `json:"min_words"`
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", generation.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrModelUnavailable, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
