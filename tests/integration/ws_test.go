//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	wsmsg "github.com/flashgen/question-service/pkg/http/ws"
)

func TestWebSocketFeedbackUpdates(t *testing.T) {
	baseHTTP := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/feedback")
	id := uuid.NewString()

	conn := dialFeedbackWS(t, baseWS, id)
	defer conn.Close()

	// Give the server a moment to register the subscriber.
	time.Sleep(200 * time.Millisecond)

	resp := makeRequest(t, http.MethodPost, baseHTTP+"/v1/feedback", "", map[string]interface{}{
		"question_id": id,
		"is_positive": true,
	})
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read update: %v", err)
		}
		if msg.Type != wsmsg.TypeFeedbackUpdate {
			continue
		}
		var payload wsmsg.FeedbackUpdatePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.QuestionID != id || payload.Positive != 1 {
			t.Fatalf("unexpected update: %+v", payload)
		}
		return
	}
}

func dialFeedbackWS(t *testing.T, wsBase, questionID string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(wsBase)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("question_id", questionID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}
