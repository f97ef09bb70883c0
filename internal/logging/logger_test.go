package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "question-service", "production", "warn")

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "question-service", line["app"])
	assert.Equal(t, "production", line["env"])
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	for _, level := range []string{"", "loud"} {
		logger := newLogger(&bytes.Buffer{}, "svc", "test", level)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel(), level)
	}
}

func TestContextHelpers(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())

	var buf bytes.Buffer
	ctx := IntoContext(context.Background(), zerolog.New(&buf))
	ctx = WithQuestion(ctx, "q-1")

	log := FromContext(ctx)
	log.Info().Msg("graded")
	assert.Contains(t, buf.String(), `"question_id":"q-1"`)
}
