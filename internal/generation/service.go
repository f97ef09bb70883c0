package generation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/flashgen/question-service/internal/metrics"
	"github.com/flashgen/question-service/internal/question"
)

var (
	// ErrInvalidGenerated means the model produced a question that fails Validate.
	ErrInvalidGenerated = errors.New("generated question failed validation")
	// ErrQuestionNotFound is returned when an id is not in the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidRequest   = errors.New("invalid generation request")
	// ErrRateLimited and ErrModelUnavailable classify Model failures.
	ErrRateLimited      = errors.New("model rate limited")
	ErrModelUnavailable = errors.New("model unavailable")
)

const (
	defaultPace            = time.Second
	defaultMaxBatch        = 50
	defaultGenerateTimeout = 90 * time.Second
)

// QuestionPool stores pre-generated questions per request key.
type QuestionPool interface {
	Push(ctx context.Context, req Request, q question.Question) error
	Pop(ctx context.Context, req Request) (question.Question, error)
	Size(ctx context.Context, req Request) (int64, error)
}

// Model produces one question for a request.
type Model interface {
	Generate(ctx context.Context, req Request) (question.Question, error)
}

// Catalog keeps every served question so it can be rendered and graded by id.
// Get must return an error matching ErrQuestionNotFound for unknown ids.
type Catalog interface {
	Save(ctx context.Context, q question.Question) error
	Get(ctx context.Context, id question.ID) (question.Question, error)
}

// Request selects what to generate. Kind defaults to multiple choice.
type Request struct {
	Topic      question.Topic
	Difficulty question.Difficulty
	Kind       question.Kind
}

// ParseRequest turns caller strings into a Request.
func ParseRequest(topic, difficulty, kind string) (Request, error) {
	t, err := question.ParseTopic(topic)
	if err != nil {
		return Request{}, err
	}
	d, err := question.ParseDifficulty(difficulty)
	if err != nil {
		return Request{}, err
	}
	req := Request{Topic: t, Difficulty: d}
	if kind != "" {
		if req.Kind, err = question.ParseKind(kind); err != nil {
			return Request{}, err
		}
	}
	return req.withDefaults(), nil
}

func (r Request) withDefaults() Request {
	if r.Kind == "" {
		r.Kind = question.KindMultipleChoice
	}
	return r
}

func (r Request) validate() error {
	if !r.Topic.Valid() || !r.Difficulty.Valid() {
		return fmt.Errorf("%w: topic=%q difficulty=%v", ErrInvalidRequest, r.Topic, r.Difficulty)
	}
	if _, err := question.ParseKind(string(r.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Service serves questions from the pool and falls back to live generation.
type Service struct {
	pool    QuestionPool
	model   Model
	catalog Catalog
	group   singleflight.Group
	logger  zerolog.Logger

	pace            time.Duration
	maxBatch        int
	generateTimeout time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
}

type ServiceOptions struct {
	// Pace is the pause between generations in GenerateAndCache. Zero means
	// one second, negative disables pacing.
	Pace     time.Duration
	MaxBatch int
	// GenerateTimeout bounds a live generation in GetQuestion. It runs
	// detached from the request that started it, so callers joining the
	// same generation are not failed when that request goes away.
	GenerateTimeout time.Duration
}

func NewService(pool QuestionPool, model Model, catalog Catalog, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.Pace < 0 {
		opts.Pace = 0
	} else if opts.Pace == 0 {
		opts.Pace = defaultPace
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = defaultMaxBatch
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = defaultGenerateTimeout
	}
	return &Service{
		pool:     pool,
		model:    model,
		catalog:  catalog,
		logger:   logger.With().Str("component", "generation_service").Logger(),
		pace:            opts.Pace,
		maxBatch:        opts.MaxBatch,
		generateTimeout: opts.GenerateTimeout,
		sleep:           sleepCtx,
	}
}

// GetQuestion pops a pooled question or generates a fresh one. Every returned
// question passes Validate and is stored in the catalog.
//
// Concurrent misses for the same key share one generation and receive the
// same question. A caller whose ctx ends stops waiting; the generation itself
// keeps going for the others.
func (s *Service) GetQuestion(ctx context.Context, req Request) (question.Question, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}

	if q := s.fromPool(ctx, req); q != nil {
		if err := s.catalog.Save(ctx, q); err != nil {
			return nil, fmt.Errorf("save question: %w", err)
		}
		return q, nil
	}

	key := s.flightKey(req)
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		genCtx, cancel := context.WithTimeout(flightCtx, s.generateTimeout)
		defer cancel()

		q, err := s.generate(genCtx, req)
		if err != nil {
			return nil, err
		}
		if err := s.catalog.Save(genCtx, q); err != nil {
			return nil, fmt.Errorf("save question: %w", err)
		}
		return q, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug().Str("key", key).Msg("generation shared between callers")
		}
		return res.Val.(question.Question), nil
	}
}

// fromPool never fails: Redis errors and undecodable entries count as a miss.
func (s *Service) fromPool(ctx context.Context, req Request) question.Question {
	if s.pool == nil {
		return nil
	}
	q, err := s.pool.Pop(ctx, req)
	switch {
	case err != nil:
		metrics.PoolLookups.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("topic", req.Topic.String()).Str("difficulty", req.Difficulty.String()).Msg("question pool read failed")
		return nil
	case q == nil:
		metrics.PoolLookups.WithLabelValues("miss").Inc()
		return nil
	case !q.Validate():
		metrics.PoolLookups.WithLabelValues("error").Inc()
		s.logger.Warn().Str("question_id", q.ID().String()).Msg("discarding invalid pooled question")
		return nil
	}
	metrics.PoolLookups.WithLabelValues("hit").Inc()
	return q
}

func (s *Service) generate(ctx context.Context, req Request) (question.Question, error) {
	q, err := s.model.Generate(ctx, req)
	if err != nil {
		metrics.QuestionsGenerated.WithLabelValues(req.Kind.String(), "error").Inc()
		return nil, fmt.Errorf("generate question: %w", err)
	}
	if q == nil || !q.Validate() || q.Kind() != req.Kind {
		metrics.QuestionsGenerated.WithLabelValues(req.Kind.String(), "invalid").Inc()
		return nil, ErrInvalidGenerated
	}
	metrics.QuestionsGenerated.WithLabelValues(req.Kind.String(), "ok").Inc()
	return q, nil
}

// GenerateAndCache generates count questions into the pool, one at a time
// with a pause in between. Failures are logged and skipped. It returns how
// many questions were stored.
func (s *Service) GenerateAndCache(ctx context.Context, req Request, count int) (int, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return 0, err
	}
	if count > s.maxBatch {
		count = s.maxBatch
	}

	stored := 0
	for i := 0; i < count; i++ {
		if i > 0 {
			if err := s.sleep(ctx, s.pace); err != nil {
				return stored, err
			}
		}

		q, err := s.generate(ctx, req)
		if err != nil {
			s.logger.Warn().Err(err).Int("attempt", i+1).Str("topic", req.Topic.String()).Msg("pool generation failed")
			continue
		}
		if err := s.pool.Push(ctx, req, q); err != nil {
			s.logger.Warn().Err(err).Str("question_id", q.ID().String()).Msg("pool write failed")
			continue
		}
		stored++
	}

	s.logger.Info().
		Str("topic", req.Topic.String()).
		Str("difficulty", req.Difficulty.String()).
		Str("kind", req.Kind.String()).
		Int("requested", count).
		Int("stored", stored).
		Msg("question pool refilled")
	return stored, nil
}

// PoolSize reports how many questions are waiting for req.
func (s *Service) PoolSize(ctx context.Context, req Request) (int64, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return 0, err
	}
	return s.pool.Size(ctx, req)
}

// Grade checks a learner response against a catalogued question.
func (s *Service) Grade(ctx context.Context, id question.ID, response string) (bool, error) {
	q, err := s.catalog.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s.GradeQuestion(q, response), nil
}

// GradeQuestion grades an already loaded question.
func (s *Service) GradeQuestion(q question.Question, response string) bool {
	correct := q.IsCorrectAnswer(response)
	metrics.AnswersGraded.WithLabelValues(q.Kind().String(), strconv.FormatBool(correct)).Inc()
	return correct
}

// Render formats a catalogued question for a learner.
func (s *Service) Render(ctx context.Context, id question.ID) (string, error) {
	q, err := s.catalog.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return q.Format(), nil
}

// Lookup loads a catalogued question.
func (s *Service) Lookup(ctx context.Context, id question.ID) (question.Question, error) {
	return s.catalog.Get(ctx, id)
}

func (s *Service) flightKey(req Request) string {
	return req.Topic.String() + ":" + req.Difficulty.String() + ":" + req.Kind.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
