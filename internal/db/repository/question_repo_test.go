package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flashgen/question-service/internal/db/queries"
	"github.com/flashgen/question-service/internal/generation"
	"github.com/flashgen/question-service/internal/question"
)

type mockQuestionStore struct {
	mock.Mock
}

func (m *mockQuestionStore) UpsertQuestion(ctx context.Context, arg queries.UpsertQuestionParams) error {
	return m.Called(ctx, arg).Error(0)
}

func (m *mockQuestionStore) GetQuestion(ctx context.Context, questionID pgtype.UUID) (queries.Question, error) {
	args := m.Called(ctx, questionID)
	return args.Get(0).(queries.Question), args.Error(1)
}

func sampleQuestion(b byte) question.Question {
	base := question.NewBase(idFromByte(b), "Which class?", question.DifficultyAdvanced, question.TopicPharmacologicalTherapy, "")
	return question.NewMultipleChoice(base, []string{"ACEi", "ARNI", "MRA"}, 1)
}

func TestQuestionRepository_SaveAndGet(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)
	q := sampleQuestion(1)

	var saved queries.UpsertQuestionParams
	store.On("UpsertQuestion", mock.Anything, mock.AnythingOfType("queries.UpsertQuestionParams")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(queries.UpsertQuestionParams) }).
		Return(nil)

	require.NoError(t, repo.Save(context.Background(), q))
	assert.Equal(t, uuidFromByte(1), saved.QuestionID)
	assert.Equal(t, "multiple_choice", saved.Kind)
	assert.Equal(t, "pharmacological_therapy", saved.Topic)
	assert.Equal(t, "advanced", saved.Difficulty)

	store.On("GetQuestion", mock.Anything, uuidFromByte(1)).
		Return(queries.Question{QuestionID: saved.QuestionID, Payload: saved.Payload}, nil)

	got, err := repo.Get(context.Background(), q.ID())
	require.NoError(t, err)
	assert.Equal(t, q.ID(), got.ID())
	assert.Equal(t, q.Format(), got.Format())
	assert.True(t, got.IsCorrectAnswer("2"))
	store.AssertExpectations(t)
}

func TestQuestionRepository_GetMissing(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	store.On("GetQuestion", mock.Anything, uuidFromByte(2)).Return(queries.Question{}, pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), idFromByte(2))
	assert.ErrorIs(t, err, generation.ErrQuestionNotFound)
}

func TestQuestionRepository_GetPropagatesErrors(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	boom := errors.New("connection reset")
	store.On("GetQuestion", mock.Anything, uuidFromByte(3)).Return(queries.Question{}, boom)
	_, err := repo.Get(context.Background(), idFromByte(3))
	assert.ErrorIs(t, err, boom)

	store.On("GetQuestion", mock.Anything, uuidFromByte(4)).Return(queries.Question{Payload: []byte(`{"type":"essay"}`)}, nil)
	_, err = repo.Get(context.Background(), idFromByte(4))
	assert.ErrorIs(t, err, question.ErrUnknownKind)
}
