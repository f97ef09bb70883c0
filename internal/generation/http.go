package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/flashgen/question-service/internal/logging"
	"github.com/flashgen/question-service/internal/question"
	"github.com/flashgen/question-service/internal/validation"
	httperrors "github.com/flashgen/question-service/pkg/http/errors"
)

const maxCacheCount = 50

// HTTPHandlers exposes question generation, rendering, grading and pool
// management over REST.
type HTTPHandlers struct {
	svc       *Service
	validator *validation.Validator
	logger    zerolog.Logger

	// jobs outlives individual requests; pool refills run under it.
	jobs       context.Context
	jobTimeout time.Duration
}

type HTTPOptions struct {
	Jobs       context.Context
	JobTimeout time.Duration
}

func NewHTTPHandlers(svc *Service, v *validation.Validator, opts HTTPOptions, logger zerolog.Logger) *HTTPHandlers {
	if v == nil {
		v = validation.New()
	}
	if opts.Jobs == nil {
		opts.Jobs = context.Background()
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 15 * time.Minute
	}
	return &HTTPHandlers{
		svc:        svc,
		validator:  v,
		logger:     logger.With().Str("component", "generation_http").Logger(),
		jobs:       opts.Jobs,
		jobTimeout: opts.JobTimeout,
	}
}

type GenerateRequest struct {
	Topic      string `json:"topic" validate:"required,topic"`
	Difficulty string `json:"difficulty" validate:"required,difficulty"`
	Kind       string `json:"kind,omitempty" validate:"question_kind"`
}

type AnswerRequest struct {
	Response *string `json:"response" validate:"required"`
}

// QuestionResponse is what a learner sees. Answers are never included.
type QuestionResponse struct {
	ID         string          `json:"id"`
	Kind       question.Kind   `json:"kind"`
	Topic      question.Topic  `json:"topic"`
	Difficulty string          `json:"difficulty"`
	Prompt     string          `json:"prompt"`
	Rendered   string          `json:"rendered"`
	Options    []string        `json:"options,omitempty"`
	Unit       string          `json:"unit,omitempty"`
	ValueRange *question.Range `json:"value_range,omitempty"`
	MinWords   int             `json:"min_words,omitempty"`
}

type AnswerResponse struct {
	QuestionID  string `json:"question_id"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

func toResponse(q question.Question) QuestionResponse {
	resp := QuestionResponse{
		ID:         q.ID().String(),
		Kind:       q.Kind(),
		Topic:      q.Topic(),
		Difficulty: q.Difficulty().String(),
		Prompt:     q.Prompt(),
		Rendered:   q.Format(),
	}
	switch v := q.(type) {
	case *question.MultipleChoice:
		resp.Options = v.Options()
	case *question.ValueBased:
		rng := v.ValueRange()
		resp.Unit = v.Unit()
		resp.ValueRange = &rng
	case *question.OpenEnded:
		resp.MinWords = v.MinWords()
	}
	return resp
}

// Create handles POST /v1/questions
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	q, err := h.svc.GetQuestion(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, toResponse(q))
}

// Get handles GET /v1/questions/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := question.ParseID(r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	q, err := h.svc.Lookup(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, toResponse(q))
}

// Answer handles POST /v1/questions/{id}/answers
func (h *HTTPHandlers) Answer(w http.ResponseWriter, r *http.Request) {
	id, err := question.ParseID(r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if !h.validate(w, req) {
		return
	}

	ctx := logging.WithQuestion(r.Context(), id.String())
	q, err := h.svc.Lookup(ctx, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	correct := h.svc.GradeQuestion(q, *req.Response)
	log := logging.FromContext(ctx)
	log.Debug().Str("kind", q.Kind().String()).Bool("correct", correct).Msg("answer graded")

	httperrors.RespondJSON(w, http.StatusOK, AnswerResponse{
		QuestionID:  id.String(),
		Correct:     correct,
		Explanation: q.Explanation(),
	})
}

// FillPool handles POST /v1/questions/cache?count=N. Generation runs in the
// background; the response only acknowledges the job.
func (h *HTTPHandlers) FillPool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxCacheCount {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "count must be between 1 and 50", "count")
			return
		}
		count = parsed
	}

	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(h.jobs, h.jobTimeout)
		defer cancel()
		if _, err := h.svc.GenerateAndCache(ctx, req, count); err != nil {
			h.logger.Warn().Err(err).Msg("background pool fill stopped")
		}
	}()

	httperrors.RespondJSON(w, http.StatusAccepted, map[string]any{
		"status":     "accepted",
		"topic":      req.Topic,
		"difficulty": req.Difficulty.String(),
		"kind":       req.Kind,
		"count":      count,
	})
}

// PoolSize handles GET /v1/questions/cache/size?topic=&difficulty=&kind=
func (h *HTTPHandlers) PoolSize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	dto := GenerateRequest{Topic: q.Get("topic"), Difficulty: q.Get("difficulty"), Kind: q.Get("kind")}
	if !h.validate(w, dto) {
		return
	}
	req, err := ParseRequest(dto.Topic, dto.Difficulty, dto.Kind)
	if err != nil {
		h.respondError(w, err)
		return
	}

	size, err := h.svc.PoolSize(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("pool size lookup failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Question pool unavailable")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]any{"size": size})
}

func (h *HTTPHandlers) decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (Request, bool) {
	var dto GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return Request{}, false
	}
	if !h.validate(w, dto) {
		return Request{}, false
	}
	req, err := ParseRequest(dto.Topic, dto.Difficulty, dto.Kind)
	if err != nil {
		h.respondError(w, err)
		return Request{}, false
	}
	return req, true
}

func (h *HTTPHandlers) validate(w http.ResponseWriter, dto any) bool {
	err := h.validator.Struct(dto)
	if err == nil {
		return true
	}
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		code := httperrors.ErrCodeValidationFailed
		switch fe.Tag {
		case "topic":
			code = httperrors.ErrCodeInvalidTopic
		case "difficulty":
			code = httperrors.ErrCodeInvalidDifficulty
		case "question_kind":
			code = httperrors.ErrCodeInvalidKind
		}
		httperrors.RespondValidationError(w, code, fe.Error(), fe.Field)
		return false
	}
	httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
	return false
}

func (h *HTTPHandlers) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, question.ErrInvalidIdentifier):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidIdentifier, "id must be a UUID", "id")
	case errors.Is(err, question.ErrInvalidTopic):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidTopic, err.Error(), "topic")
	case errors.Is(err, question.ErrInvalidDifficulty):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidDifficulty, err.Error(), "difficulty")
	case errors.Is(err, question.ErrUnknownKind):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidKind, err.Error(), "kind")
	case errors.Is(err, ErrInvalidRequest):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, ErrQuestionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionNotFound, "Question not found")
	case errors.Is(err, ErrRateLimited):
		httperrors.RespondError(w, http.StatusTooManyRequests, httperrors.ErrCodeRateLimited, "Question model is rate limited, retry later")
	case errors.Is(err, ErrModelUnavailable):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Question model unavailable")
	case errors.Is(err, context.Canceled):
		// The client is gone; nobody reads the response.
		h.logger.Debug().Err(err).Msg("question request abandoned")
	case errors.Is(err, context.DeadlineExceeded):
		httperrors.RespondError(w, http.StatusGatewayTimeout, httperrors.ErrCodeUpstreamError, "Question generation timed out")
	case errors.Is(err, ErrInvalidGenerated):
		h.logger.Warn().Err(err).Msg("model produced an invalid question")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeGenerationFailed, "Could not generate a valid question")
	default:
		h.logger.Error().Err(err).Msg("question request failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "Question generation failed")
	}
}
