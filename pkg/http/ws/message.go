package ws

import "encoding/json"

// MessageType constants for the feedback stream protocol.
const (
	// Client -> Server
	TypePing = "ping"

	// Server -> Client
	TypeFeedbackUpdate = "feedback_update"
	TypePong           = "pong"
	TypeError          = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// FeedbackUpdatePayload carries the counters of one question after a vote.
type FeedbackUpdatePayload struct {
	QuestionID string `json:"question_id"`
	Positive   int    `json:"positive"`
	Negative   int    `json:"negative"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
