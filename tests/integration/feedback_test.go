//go:build integration
// +build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

type countsResponse struct {
	QuestionID string `json:"question_id"`
	Positive   int    `json:"positive"`
	Negative   int    `json:"negative"`
}

func TestFeedbackRoundTrip(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	id := uuid.NewString()

	for _, vote := range []bool{true, true, false} {
		resp := makeRequest(t, http.MethodPost, baseURL+"/v1/feedback", "", map[string]interface{}{
			"question_id": id,
			"is_positive": vote,
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submit feedback: status %d", resp.StatusCode)
		}
	}

	resp := makeRequest(t, http.MethodGet, fmt.Sprintf("%s/v1/feedback/%s", baseURL, id), "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get feedback: status %d", resp.StatusCode)
	}
	var counts countsResponse
	decode(t, resp, &counts)
	if counts.Positive != 2 || counts.Negative != 1 {
		t.Fatalf("expected 2/1, got %d/%d", counts.Positive, counts.Negative)
	}
}

func TestFeedbackUnknownQuestionIsZero(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	resp := makeRequest(t, http.MethodGet, fmt.Sprintf("%s/v1/feedback/%s", baseURL, uuid.NewString()), "", nil)
	defer resp.Body.Close()
	var counts countsResponse
	decode(t, resp, &counts)
	if counts.Positive != 0 || counts.Negative != 0 {
		t.Fatalf("expected zero counts, got %+v", counts)
	}
}
