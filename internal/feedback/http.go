package feedback

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flashgen/question-service/internal/question"
	httperrors "github.com/flashgen/question-service/pkg/http/errors"
	ws "github.com/flashgen/question-service/pkg/http/ws"
)

type subscriptions interface {
	Register(id uuid.UUID, conn ws.Sender, filter string)
	Unregister(id uuid.UUID)
}

// HTTPHandlers exposes vote submission, lookup and the live stream.
type HTTPHandlers struct {
	svc    *Service
	hub    subscriptions
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, hub subscriptions, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		hub:    hub,
		logger: logger.With().Str("component", "feedback_http").Logger(),
	}
}

// SubmitRequest keeps both fields raw. A missing or mistyped field is then
// reported as invalid_identifier or invalid_feedback_value rather than as a
// generic decode failure.
type SubmitRequest struct {
	QuestionID json.RawMessage `json:"question_id"`
	IsPositive json.RawMessage `json:"is_positive"`
}

type CountsResponse struct {
	QuestionID string `json:"question_id"`
	Counts
}

// Submit handles POST /v1/feedback
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	rawID := rawString(req.QuestionID)
	counts, err := h.svc.Submit(r.Context(), rawID, req.IsPositive)
	if err != nil {
		h.respondParseError(w, err)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, CountsResponse{QuestionID: rawID, Counts: counts})
}

// Get handles GET /v1/feedback/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawID := r.PathValue("id")
	counts, err := h.svc.Lookup(r.Context(), rawID)
	if err != nil {
		h.respondParseError(w, err)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, CountsResponse{QuestionID: rawID, Counts: counts})
}

// Stream handles GET /ws/feedback?question_id=
func (h *HTTPHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("question_id")
	if filter != "" {
		id, err := question.ParseID(filter)
		if err != nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidIdentifier, "question_id must be a UUID", "question_id")
			return
		}
		filter = id.String()
	}

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	connID := uuid.New()
	c := ws.NewConnection(conn, h.logger.With().Str("conn_id", connID.String()).Logger())
	h.hub.Register(connID, c, filter)

	go c.WritePump()
	c.ReadPump()
	h.hub.Unregister(connID)
}

func (h *HTTPHandlers) respondParseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidIdentifier, "question_id must be a UUID", "question_id")
	case errors.Is(err, ErrInvalidFeedbackValue):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidFeedbackValue, "is_positive must be true or false", "is_positive")
	default:
		h.logger.Error().Err(err).Msg("feedback request failed")
		httperrors.RespondInternalError(w, "Failed to process feedback")
	}
}

// rawString returns the JSON string in raw, or "" for any other value so
// identifier parsing rejects it.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
