package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"perpetua/internal/domain"
	"perpetua/internal/dto"
	"perpetua/internal/handler"
	"perpetua/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_GetMyProfile(t *testing.T) {
	svc := &MockUserService{
		GetProfileFunc: func(ctx context.Context, userID string) (*domain.User, error) {
			if userID == "ghost" {
				return nil, domain.NewNotFoundError("user not found")
			}
			return &domain.User{ID: userID, Email: "ayse@example.com", Username: "ayse", CurrentLevel: "B1", WeeklyScore: 120}, nil
		},
	}

	app := newTestApp("user-1")
	app.Get("/users/me", handler.NewUserHandler(svc, &MockCoachingService{}).GetMyProfile)
	resp, err := app.Test(httptest.NewRequest("GET", "/users/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var profile dto.UserProfileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "ayse", profile.Username)
	assert.Equal(t, "B1", profile.CurrentLevel)
	assert.Equal(t, 120, profile.WeeklyScore)

	ghostApp := newTestApp("ghost")
	ghostApp.Get("/users/me", handler.NewUserHandler(svc, &MockCoachingService{}).GetMyProfile)
	resp, err = ghostApp.Test(httptest.NewRequest("GET", "/users/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUserHandler_UpdateMyLevel(t *testing.T) {
	svc := &MockUserService{
		UpdateLevelFunc: func(ctx context.Context, userID, level string) (*domain.User, error) {
			if !domain.IsValidLevel(level) {
				return nil, domain.ValidationErrors{domain.NewInvalidFormatError("level", level)}
			}
			return &domain.User{ID: userID, CurrentLevel: level}, nil
		},
	}
	app := newTestApp("user-1")
	app.Put("/users/me/level", handler.NewUserHandler(svc, &MockCoachingService{}).UpdateMyLevel)

	for level, want := range map[string]int{"C1": fiber.StatusOK, "X9": fiber.StatusBadRequest} {
		req := httptest.NewRequest("PUT", "/users/me/level", bytes.NewBufferString(`{"level":"`+level+`"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, level)
	}
}

func TestUserHandler_GetMyMistakes(t *testing.T) {
	var gotLimit int
	svc := &MockUserService{
		GetRecentMistakesFunc: func(ctx context.Context, userID string, limit int) ([]domain.UserMistake, error) {
			gotLimit = limit
			return []domain.UserMistake{
				{ID: "m2", QuestionText: "Apple", UserAnswer: "Armut", CorrectAnswer: "Elma", CreatedAt: time.Now()},
			}, nil
		},
	}
	app := newTestApp("user-1")
	vm := middleware.NewValidationMiddleware()
	app.Get("/users/me/mistakes", vm.ValidateLimit(handler.DefaultMistakesLimit), handler.NewUserHandler(svc, &MockCoachingService{}).GetMyMistakes)

	resp, err := app.Test(httptest.NewRequest("GET", "/users/me/mistakes?limit=3", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, gotLimit)

	var body dto.MistakesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Mistakes, 1)
	assert.Equal(t, "Elma", body.Mistakes[0].CorrectAnswer)

	_, err = app.Test(httptest.NewRequest("GET", "/users/me/mistakes", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, handler.DefaultMistakesLimit, gotLimit)
}

func TestUserHandler_GetMyCoaching(t *testing.T) {
	coaching := &MockCoachingService{
		GetCoachingFeedbackFunc: func(ctx context.Context, userID string) (string, error) {
			return "Keep practising is/are!", nil
		},
	}
	app := newTestApp("user-1")
	app.Get("/users/me/coaching", handler.NewUserHandler(&MockUserService{}, coaching).GetMyCoaching)

	resp, err := app.Test(httptest.NewRequest("GET", "/users/me/coaching", nil), -1)
	require.NoError(t, err)
	var body dto.CoachingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Keep practising is/are!", body.Feedback)
}

func TestUserHandler_GetLeaderboard(t *testing.T) {
	svc := &MockUserService{
		GetLeaderboardFunc: func(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
			assert.Equal(t, handler.DefaultLeaderboardLimit, limit)
			return []domain.LeaderboardEntry{{Rank: 1, Username: "zeynep", WeeklyScore: 340, Level: "B2"}}, nil
		},
	}
	app := newTestApp("user-1")
	vm := middleware.NewValidationMiddleware()
	app.Get("/users/leaderboard", vm.ValidateLimit(handler.DefaultLeaderboardLimit), handler.NewUserHandler(svc, &MockCoachingService{}).GetLeaderboard)

	resp, err := app.Test(httptest.NewRequest("GET", "/users/leaderboard", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.LeaderboardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "zeynep", body.Entries[0].Username)
}
