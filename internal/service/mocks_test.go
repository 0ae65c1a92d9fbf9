package service

import (
	"context"
	"time"

	"perpetua/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockUserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLevel(ctx context.Context, userID, level string) error {
	args := m.Called(ctx, userID, level)
	return args.Error(0)
}

func (m *MockUserRepository) LinkGoogleID(ctx context.Context, userID, googleID string) error {
	args := m.Called(ctx, userID, googleID)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementWeeklyScore(ctx context.Context, userID string, delta int) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

func (m *MockUserRepository) ListTopByWeeklyScore(ctx context.Context, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// --- MockMistakeLedger ---
type MockMistakeLedger struct {
	mock.Mock
}

func (m *MockMistakeLedger) Record(ctx context.Context, userID string, wrong domain.WrongAnswer) (string, error) {
	args := m.Called(ctx, userID, wrong)
	return args.String(0), args.Error(1)
}

func (m *MockMistakeLedger) Prune(ctx context.Context, userID string, keepLimit int) (int64, error) {
	args := m.Called(ctx, userID, keepLimit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMistakeLedger) Recent(ctx context.Context, userID string, limit int) ([]domain.UserMistake, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserMistake), args.Error(1)
}

// --- MockTransactionManager ---
// Runs fn inline and reports whatever fn returns, like a real commit/rollback would.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockTextGenerator ---
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *MockTextGenerator) GenerateJSON(ctx context.Context, prompt string, opts domain.GenerationOptions, v any) error {
	args := m.Called(ctx, prompt, opts, v)
	return args.Error(0)
}

// --- MockExerciseGenerator ---
type MockExerciseGenerator struct {
	mock.Mock
}

func (m *MockExerciseGenerator) Generate(ctx context.Context, exerciseType domain.ExerciseType, level string) (*domain.ExerciseSession, error) {
	args := m.Called(ctx, exerciseType, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExerciseSession), args.Error(1)
}

// --- MockEvaluator ---
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(ctx context.Context, payload domain.EvaluationPayload, username string) domain.EvaluationResult {
	args := m.Called(ctx, payload, username)
	return args.Get(0).(domain.EvaluationResult)
}
