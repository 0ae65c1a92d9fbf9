package dto

import (
	"time"

	"perpetua/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// GoogleUserInfo holds user information obtained from Google.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// AuthClaims defines the custom claims for JWT.
type AuthClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// RegisterRequest is the body of POST /auth/register.
// @Description Request body for creating an account
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
// @Description Request body for password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents the response containing access and refresh tokens.
// @Description Response body for authentication tokens
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RefreshTokenRequest represents the request body for refreshing a token.
// @Description Request body for refreshing JWT tokens
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserProfileResponse defines the structure for a user's profile information.
type UserProfileResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	CurrentLevel string    `json:"current_level"`
	WeeklyScore  int       `json:"weekly_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserProfileResponse converts a domain user for the API.
func NewUserProfileResponse(u *domain.User) *UserProfileResponse {
	return &UserProfileResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		CurrentLevel: u.CurrentLevel,
		WeeklyScore:  u.WeeklyScore,
		CreatedAt:    u.CreatedAt,
	}
}

// UpdateLevelRequest is the body of PUT /users/me/level.
type UpdateLevelRequest struct {
	Level string `json:"level"`
}

// MistakeResponse is one entry of the user's mistake history.
type MistakeResponse struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	CreatedAt     time.Time `json:"created_at"`
}

// MistakesResponse lists mistakes newest first.
type MistakesResponse struct {
	Mistakes []MistakeResponse `json:"mistakes"`
}

// NewMistakesResponse converts ledger rows for the API.
func NewMistakesResponse(mistakes []domain.UserMistake) *MistakesResponse {
	items := make([]MistakeResponse, 0, len(mistakes))
	for _, m := range mistakes {
		items = append(items, MistakeResponse{
			ID:            m.ID,
			Question:      m.QuestionText,
			UserAnswer:    m.UserAnswer,
			CorrectAnswer: m.CorrectAnswer,
			CreatedAt:     m.CreatedAt,
		})
	}
	return &MistakesResponse{Mistakes: items}
}

// CoachingResponse carries short personalised advice.
type CoachingResponse struct {
	Feedback string `json:"feedback"`
}

// LeaderboardResponse is the weekly ranking.
type LeaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

// MessageResponse represents a generic message response.
// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}
