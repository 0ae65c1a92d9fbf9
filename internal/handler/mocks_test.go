package handler_test

import (
	"context"
	"time"

	"perpetua/internal/domain"
	"perpetua/internal/dto"
	"perpetua/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// --- Manual Mocks ---

type MockExerciseService struct {
	GenerateSessionFunc func(ctx context.Context, userID, exerciseType string) (*domain.ExerciseSession, error)
	EvaluateFunc        func(ctx context.Context, userID string, payload domain.EvaluationPayload) (*domain.EvaluationResult, error)
}

func (m *MockExerciseService) GenerateSession(ctx context.Context, userID, exerciseType string) (*domain.ExerciseSession, error) {
	if m.GenerateSessionFunc != nil {
		return m.GenerateSessionFunc(ctx, userID, exerciseType)
	}
	panic("MockExerciseService.GenerateSessionFunc not implemented")
}

func (m *MockExerciseService) Evaluate(ctx context.Context, userID string, payload domain.EvaluationPayload) (*domain.EvaluationResult, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, userID, payload)
	}
	panic("MockExerciseService.EvaluateFunc not implemented")
}

type MockUserService struct {
	GetProfileFunc        func(ctx context.Context, userID string) (*domain.User, error)
	UpdateLevelFunc       func(ctx context.Context, userID, level string) (*domain.User, error)
	GetRecentMistakesFunc func(ctx context.Context, userID string, limit int) ([]domain.UserMistake, error)
	GetLeaderboardFunc    func(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

func (m *MockUserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	panic("MockUserService.GetProfileFunc not implemented")
}

func (m *MockUserService) UpdateLevel(ctx context.Context, userID, level string) (*domain.User, error) {
	if m.UpdateLevelFunc != nil {
		return m.UpdateLevelFunc(ctx, userID, level)
	}
	panic("MockUserService.UpdateLevelFunc not implemented")
}

func (m *MockUserService) GetRecentMistakes(ctx context.Context, userID string, limit int) ([]domain.UserMistake, error) {
	if m.GetRecentMistakesFunc != nil {
		return m.GetRecentMistakesFunc(ctx, userID, limit)
	}
	panic("MockUserService.GetRecentMistakesFunc not implemented")
}

func (m *MockUserService) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if m.GetLeaderboardFunc != nil {
		return m.GetLeaderboardFunc(ctx, limit)
	}
	panic("MockUserService.GetLeaderboardFunc not implemented")
}

type MockCoachingService struct {
	GetCoachingFeedbackFunc func(ctx context.Context, userID string) (string, error)
}

func (m *MockCoachingService) GetCoachingFeedback(ctx context.Context, userID string) (string, error) {
	if m.GetCoachingFeedbackFunc != nil {
		return m.GetCoachingFeedbackFunc(ctx, userID)
	}
	panic("MockCoachingService.GetCoachingFeedbackFunc not implemented")
}

type MockAuthService struct {
	RegisterFunc             func(ctx context.Context, email, username, password string) (*domain.User, error)
	LoginFunc                func(ctx context.Context, email, password string) (string, string, error)
	GoogleLoginEnabledFunc   func() bool
	GetGoogleLoginURLFunc    func(state string) string
	HandleGoogleCallbackFunc func(ctx context.Context, code, receivedState, expectedState string) (string, string, *domain.User, error)
	RefreshTokenFunc         func(ctx context.Context, refreshTokenString string) (string, string, error)
}

func (m *MockAuthService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, username, password)
	}
	panic("MockAuthService.RegisterFunc not implemented")
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	panic("MockAuthService.LoginFunc not implemented")
}

func (m *MockAuthService) GoogleLoginEnabled() bool {
	if m.GoogleLoginEnabledFunc != nil {
		return m.GoogleLoginEnabledFunc()
	}
	return false
}

func (m *MockAuthService) GetGoogleLoginURL(state string) string {
	if m.GetGoogleLoginURLFunc != nil {
		return m.GetGoogleLoginURLFunc(state)
	}
	panic("MockAuthService.GetGoogleLoginURLFunc not implemented")
}

func (m *MockAuthService) HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (string, string, *domain.User, error) {
	if m.HandleGoogleCallbackFunc != nil {
		return m.HandleGoogleCallbackFunc(ctx, code, receivedState, expectedState)
	}
	panic("MockAuthService.HandleGoogleCallbackFunc not implemented")
}

func (m *MockAuthService) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	panic("MockAuthService.ValidateJWT not implemented")
}

func (m *MockAuthService) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	panic("MockAuthService.CreateJWT not implemented")
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshTokenString)
	}
	panic("MockAuthService.RefreshTokenFunc not implemented")
}

// newTestApp returns an app with the production error handler. A non-empty
// userID is injected the way middleware.Protected would.
func newTestApp(userID string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	if userID != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(middleware.UserIDKey, userID)
			return c.Next()
		})
	}
	return app
}
