package ws

import (
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	mu     sync.Mutex
	msgs   []Message
	closed bool
	err    error
}

func (s *recordingSender) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recordingSender) received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestHubPublishHonoursFilter(t *testing.T) {
	hub := NewHub(zerolog.New(io.Discard))

	all := &recordingSender{}
	watching := &recordingSender{}
	other := &recordingSender{}
	hub.Register(uuid.New(), all, "")
	hub.Register(uuid.New(), watching, "q-1")
	hub.Register(uuid.New(), other, "q-2")

	delivered := hub.Publish("q-1", Message{Type: TypeFeedbackUpdate})

	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, all.received())
	assert.Equal(t, 1, watching.received())
	assert.Equal(t, 0, other.received())
}

func TestHubSkipsFailingSenders(t *testing.T) {
	hub := NewHub(zerolog.New(io.Discard))

	full := &recordingSender{err: ErrSendQueueFull}
	ok := &recordingSender{}
	hub.Register(uuid.New(), full, "")
	hub.Register(uuid.New(), ok, "")

	assert.Equal(t, 1, hub.Publish("q", Message{Type: TypeFeedbackUpdate}))
	assert.Equal(t, 1, ok.received())
}

func TestHubRegisterReplacesAndUnregisterCloses(t *testing.T) {
	hub := NewHub(zerolog.New(io.Discard))
	id := uuid.New()

	first := &recordingSender{}
	second := &recordingSender{}
	hub.Register(id, first, "")
	hub.Register(id, second, "")

	assert.True(t, first.closed)
	assert.Equal(t, 1, hub.Count())

	hub.Unregister(id)
	assert.True(t, second.closed)
	assert.Equal(t, 0, hub.Count())

	// unknown ids are ignored
	hub.Unregister(uuid.New())
}
