package feedback

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashgen/question-service/internal/question"
	httperrors "github.com/flashgen/question-service/pkg/http/errors"
	ws "github.com/flashgen/question-service/pkg/http/ws"
)

func newTestMux(t *testing.T) (*http.ServeMux, *ws.Hub) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	svc := NewService(NewAggregator(), ServiceOptions{}, logger)
	hub := ws.NewHub(logger)
	h := NewHTTPHandlers(svc, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/feedback", h.Submit)
	mux.HandleFunc("/v1/feedback/{id}", h.Get)
	mux.HandleFunc("/ws/feedback", h.Stream)
	return mux, hub
}

func post(mux http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSubmitAndGetFeedback(t *testing.T) {
	mux, _ := newTestMux(t)
	id := question.NewID().String()

	for _, vote := range []string{"true", "true", "false"} {
		rec := post(mux, `{"question_id":"`+id+`","is_positive":`+vote+`}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feedback/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.QuestionID)
	assert.Equal(t, Counts{Positive: 2, Negative: 1}, resp.Counts)
}

func TestSubmitFeedbackErrors(t *testing.T) {
	mux, _ := newTestMux(t)
	id := question.NewID().String()

	cases := []struct {
		name string
		body string
		code string
	}{
		{"malformed id", `{"question_id":"not-an-id","is_positive":true}`, httperrors.ErrCodeInvalidIdentifier},
		{"string vote", `{"question_id":"` + id + `","is_positive":"yes"}`, httperrors.ErrCodeInvalidFeedbackValue},
		{"numeric vote", `{"question_id":"` + id + `","is_positive":1}`, httperrors.ErrCodeInvalidFeedbackValue},
		{"missing vote", `{"question_id":"` + id + `"}`, httperrors.ErrCodeInvalidFeedbackValue},
		{"null vote", `{"question_id":"` + id + `","is_positive":null}`, httperrors.ErrCodeInvalidFeedbackValue},
		{"numeric id", `{"question_id":123,"is_positive":true}`, httperrors.ErrCodeInvalidIdentifier},
		{"object id", `{"question_id":{"id":"` + id + `"},"is_positive":true}`, httperrors.ErrCodeInvalidIdentifier},
		{"not json", `{`, httperrors.ErrCodeInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(mux, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body httperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Error)
		})
	}
}

func TestGetFeedbackUnknownAndInvalid(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feedback/"+question.NewID().String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, Counts{}, resp.Counts)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feedback/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamDeliversUpdates(t *testing.T) {
	mux, hub := newTestMux(t)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	id := question.NewID().String()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feedback?question_id=" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	payload, _ := json.Marshal(ws.FeedbackUpdatePayload{QuestionID: id, Positive: 1})
	assert.Equal(t, 0, hub.Publish(question.NewID().String(), ws.Message{Type: ws.TypeFeedbackUpdate}))
	assert.Equal(t, 1, hub.Publish(id, ws.Message{Type: ws.TypeFeedbackUpdate, Payload: payload}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeFeedbackUpdate, msg.Type)
	assert.JSONEq(t, string(payload), string(msg.Payload))
}

func TestStreamRejectsBadFilter(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/feedback?question_id=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamAnswersClientFrames(t *testing.T) {
	mux, hub := newTestMux(t)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/feedback", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	require.NoError(t, conn.WriteJSON(ws.Message{Type: ws.TypePing, RequestID: "r1"}))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypePong, msg.Type)
	assert.Equal(t, "r1", msg.RequestID)

	require.NoError(t, conn.WriteJSON(ws.Message{Type: "vote"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeError, msg.Type)
	var payload ws.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "unsupported_message", payload.Code)
}
