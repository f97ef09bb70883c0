package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeTokenExpired = "token_expired"

	// Validation errors
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeValidationFailed     = "validation_failed"
	ErrCodeInvalidIdentifier    = "invalid_identifier"
	ErrCodeInvalidFeedbackValue = "invalid_feedback_value"
	ErrCodeInvalidTopic         = "invalid_topic"
	ErrCodeInvalidDifficulty    = "invalid_difficulty"
	ErrCodeInvalidKind          = "invalid_kind"

	// Resource errors
	ErrCodeQuestionNotFound = "question_not_found"

	// Generation errors
	ErrCodeGenerationFailed = "generation_failed"
	ErrCodeRateLimited      = "rate_limited"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
