package handler

import (
	"perpetua/internal/domain"
	"perpetua/internal/dto"
	"perpetua/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ExerciseHandler handles exercise generation and evaluation requests
type ExerciseHandler struct {
	service service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler instance
func NewExerciseHandler(service service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{service: service}
}

// GetExercise godoc
// @Summary Generate an exercise session
// @Description Generates 5 fresh questions of the requested type at the user's level.
// @Tags exercise
// @Security ApiKeyAuth
// @Produce json
// @Param exercise_type query string true "grammar, dialogue or word_matching"
// @Success 200 {object} dto.ExerciseSessionResponse
// @Failure 400 {object} middleware.ErrorResponse "Unsupported exercise type"
// @Failure 502 {object} middleware.ErrorResponse "AI returned an unusable exercise"
// @Failure 503 {object} middleware.ErrorResponse "AI provider unavailable"
// @Router /exercise [get]
func (h *ExerciseHandler) GetExercise(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	exerciseType := c.Query("exercise_type")
	if exerciseType == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("exercise_type")}
	}

	session, err := h.service.GenerateSession(c.Context(), userID, exerciseType)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewExerciseSessionResponse(session))
}

// EvaluateExercise godoc
// @Summary Evaluate a finished session
// @Description Scores the session, adds the score to the weekly total and records wrong answers.
// @Tags exercise
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body dto.EvaluationRequest true "Session summary"
// @Success 200 {object} dto.EvaluationResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /exercise/evaluate [post]
func (h *ExerciseHandler) EvaluateExercise(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.EvaluationRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}

	result, err := h.service.Evaluate(c.Context(), userID, req.ToPayload())
	if err != nil {
		return err
	}
	return c.JSON(dto.EvaluationResponse{Score: result.Score, Feedback: result.Feedback})
}
