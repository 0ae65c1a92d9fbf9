package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"perpetua/internal/domain"
	"perpetua/internal/handler"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExerciseHandler_GetExercise(t *testing.T) {
	session := &domain.ExerciseSession{
		ExerciseType: domain.ExerciseGrammar,
		Questions: []domain.Question{
			&domain.GrammarQuestion{
				Type:             domain.ExerciseGrammar,
				SentenceTemplate: "She ___ a doctor.",
				WordBank:         []string{"is", "are", "am", "be"},
				CorrectWord:      "is",
			},
		},
	}

	tests := []struct {
		name       string
		query      string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "success", query: "?exercise_type=grammar", wantStatus: fiber.StatusOK},
		{name: "missing type", query: "", wantStatus: fiber.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "unsupported type", query: "?exercise_type=listening", svcErr: domain.NewInvalidExerciseTypeError("listening"), wantStatus: fiber.StatusBadRequest, wantCode: "INVALID_EXERCISE_TYPE"},
		{name: "provider down", query: "?exercise_type=grammar", svcErr: domain.NewLLMServiceError(domain.ErrProviderFailure), wantStatus: fiber.StatusServiceUnavailable, wantCode: "LLM_SERVICE_ERROR"},
		{name: "malformed output", query: "?exercise_type=grammar", svcErr: domain.NewMalformedAIResponseError(domain.ErrMalformedResponse), wantStatus: fiber.StatusBadGateway, wantCode: "MALFORMED_AI_RESPONSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockExerciseService{
				GenerateSessionFunc: func(ctx context.Context, userID, exerciseType string) (*domain.ExerciseSession, error) {
					assert.Equal(t, "user-1", userID)
					if tt.svcErr != nil {
						return nil, tt.svcErr
					}
					return session, nil
				},
			}
			app := newTestApp("user-1")
			app.Get("/exercise", handler.NewExerciseHandler(svc).GetExercise)

			resp, err := app.Test(httptest.NewRequest("GET", "/exercise"+tt.query, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
				return
			}
			assert.Equal(t, "grammar", body["exercise_type"])
			questions := body["questions"].([]interface{})
			require.Len(t, questions, 1)
			q := questions[0].(map[string]interface{})
			assert.Equal(t, "grammar", q["type"])
			assert.Equal(t, "is", q["correct_word"])
		})
	}
}

func TestExerciseHandler_GetExercise_Unauthenticated(t *testing.T) {
	app := newTestApp("")
	app.Get("/exercise", handler.NewExerciseHandler(&MockExerciseService{}).GetExercise)

	resp, err := app.Test(httptest.NewRequest("GET", "/exercise?exercise_type=grammar", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestExerciseHandler_EvaluateExercise(t *testing.T) {
	t.Run("maps the request onto the payload", func(t *testing.T) {
		var got domain.EvaluationPayload
		svc := &MockExerciseService{
			EvaluateFunc: func(ctx context.Context, userID string, payload domain.EvaluationPayload) (*domain.EvaluationResult, error) {
				got = payload
				return &domain.EvaluationResult{Score: 80, Feedback: "Great job"}, nil
			},
		}
		app := newTestApp("user-1")
		app.Post("/exercise/evaluate", handler.NewExerciseHandler(svc).EvaluateExercise)

		body := `{"total_questions":5,"correct_answers":4,"final_score":80,"wrong_answers":[{"question":"Q","user_answer":"a","correct_answer":"b"}]}`
		req := httptest.NewRequest("POST", "/exercise/evaluate", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 5, got.TotalQuestions)
		require.NotNil(t, got.FinalScore)
		assert.Equal(t, 80, *got.FinalScore)
		assert.Equal(t, []domain.WrongAnswer{{Question: "Q", UserAnswer: "a", CorrectAnswer: "b"}}, got.WrongAnswers)

		var result map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, float64(80), result["score"])
		assert.Equal(t, "Great job", result["feedback"])
	})

	t.Run("invalid json", func(t *testing.T) {
		app := newTestApp("user-1")
		app.Post("/exercise/evaluate", handler.NewExerciseHandler(&MockExerciseService{}).EvaluateExercise)

		req := httptest.NewRequest("POST", "/exercise/evaluate", bytes.NewBufferString(`{"total_questions":`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("validation errors surface as 400", func(t *testing.T) {
		svc := &MockExerciseService{
			EvaluateFunc: func(ctx context.Context, userID string, payload domain.EvaluationPayload) (*domain.EvaluationResult, error) {
				return nil, domain.ValidationErrors{domain.NewOutOfRangeError("correct_answers", 9, 0, 5)}
			},
		}
		app := newTestApp("user-1")
		app.Post("/exercise/evaluate", handler.NewExerciseHandler(svc).EvaluateExercise)

		req := httptest.NewRequest("POST", "/exercise/evaluate", bytes.NewBufferString(`{"total_questions":5,"correct_answers":9}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
