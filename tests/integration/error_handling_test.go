//go:build integration
// +build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestFeedbackValidationErrors(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	testCases := []struct {
		name    string
		payload map[string]interface{}
		code    string
	}{
		{"malformed id", map[string]interface{}{"question_id": "abc", "is_positive": true}, "invalid_identifier"},
		{"string vote", map[string]interface{}{"question_id": uuid.NewString(), "is_positive": "true"}, "invalid_feedback_value"},
		{"null vote", map[string]interface{}{"question_id": uuid.NewString(), "is_positive": nil}, "invalid_feedback_value"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := makeRequest(t, http.MethodPost, baseURL+"/v1/feedback", "", tc.payload)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var errResp map[string]interface{}
			decode(t, resp, &errResp)
			if errResp["error"] != tc.code {
				t.Fatalf("expected error code %q, got %v", tc.code, errResp["error"])
			}
		})
	}
}

func TestQuestionValidationErrors(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	resp := makeRequest(t, http.MethodPost, baseURL+"/v1/questions", "", map[string]interface{}{
		"topic":      "cardiology",
		"difficulty": "beginner",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp2 := makeRequest(t, http.MethodGet, baseURL+"/v1/questions/"+uuid.NewString(), "", nil)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d", resp2.StatusCode)
	}
}

func TestPoolFillRequiresAdmin(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	payload := map[string]interface{}{"topic": "diagnosis", "difficulty": "beginner"}

	resp := makeRequest(t, http.MethodPost, baseURL+"/v1/questions/cache?count=1", "", payload)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp2 := makeRequest(t, http.MethodPost, baseURL+"/v1/questions/cache?count=1", adminToken(t), payload)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp2.StatusCode)
	}
}
