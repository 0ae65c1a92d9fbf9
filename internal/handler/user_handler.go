package handler

import (
	"perpetua/internal/domain"
	"perpetua/internal/dto"
	"perpetua/internal/middleware"
	"perpetua/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultMistakesLimit    = 10
	DefaultLeaderboardLimit = 10
)

type UserHandler struct {
	userService     service.UserService
	coachingService service.CoachingService
}

func NewUserHandler(userService service.UserService, coachingService service.CoachingService) *UserHandler {
	return &UserHandler{userService: userService, coachingService: coachingService}
}

// currentUserID reads the id stored by middleware.Protected.
func currentUserID(c *fiber.Ctx) (string, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return "", domain.NewUnauthorizedError("User ID not found in context")
	}
	return userID, nil
}

// GetMyProfile retrieves the profile of the currently authenticated user.
// @Summary Get My Profile
// @Description Retrieves the profile information of the logged-in user.
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.UserProfileResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /users/me [get]
func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserProfileResponse(user))
}

// UpdateMyLevel changes the CEFR level used for new exercises.
// @Summary Update My Level
// @Tags users
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body dto.UpdateLevelRequest true "New level (A1-C2)"
// @Success 200 {object} dto.UserProfileResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /users/me/level [put]
func (h *UserHandler) UpdateMyLevel(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateLevelRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	user, err := h.userService.UpdateLevel(c.Context(), userID, req.Level)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserProfileResponse(user))
}

// GetMyMistakes lists recent wrong answers, newest first.
// @Summary Get My Mistakes
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Maximum entries (1-100)" default(10)
// @Success 200 {object} dto.MistakesResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /users/me/mistakes [get]
func (h *UserHandler) GetMyMistakes(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	mistakes, err := h.userService.GetRecentMistakes(c.Context(), userID, middleware.Limit(c, DefaultMistakesLimit))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMistakesResponse(mistakes))
}

// GetMyCoaching returns short advice based on recent mistakes.
// @Summary Get Coaching Feedback
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.CoachingResponse
// @Router /users/me/coaching [get]
func (h *UserHandler) GetMyCoaching(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	feedback, err := h.coachingService.GetCoachingFeedback(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.CoachingResponse{Feedback: feedback})
}

// GetLeaderboard returns users ranked by weekly score.
// @Summary Weekly Leaderboard
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Maximum entries (1-100)" default(10)
// @Success 200 {object} dto.LeaderboardResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /users/leaderboard [get]
func (h *UserHandler) GetLeaderboard(c *fiber.Ctx) error {
	entries, err := h.userService.GetLeaderboard(c.Context(), middleware.Limit(c, DefaultLeaderboardLimit))
	if err != nil {
		return err
	}
	return c.JSON(dto.LeaderboardResponse{Entries: entries})
}
