package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"perpetua/internal/domain"
	"perpetua/internal/dto"
	"perpetua/internal/logger"
	"perpetua/internal/service"
	"perpetua/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	oauthStateCookieName = "oauthstate"
)

type AuthHandler struct {
	authService service.AuthService
	validator   *validation.Validator
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validation.NewValidator(),
	}
}

// Register creates a password account.
// @Summary Register
// @Description Creates an account with email, username and password. New users start at level A1.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "Account details"
// @Success 201 {object} dto.UserProfileResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Email or username taken"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateRegisterRequest(req.Email, req.Username, req.Password); len(errs) > 0 {
		return errs
	}

	user, err := h.authService.Register(c.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserProfileResponse(user))
}

// Login exchanges email and password for tokens.
// @Summary Login
// @Description Issues an access and a refresh token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateLoginRequest(req.Email, req.Password); len(errs) > 0 {
		return errs
	}

	accessToken, refreshToken, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    service.TokenTypeBearer,
	})
}

// RefreshToken generates new access and refresh tokens using a valid refresh token.
// @Summary Refresh JWT tokens
// @Description Provides a new token pair if the provided refresh token is valid.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Refresh token missing"
// @Failure 401 {object} middleware.ErrorResponse "Refresh token invalid or expired"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if req.RefreshToken == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("refresh_token")}
	}

	newAccessToken, newRefreshToken, err := h.authService.RefreshToken(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		TokenType:    service.TokenTypeBearer,
	})
}

// GoogleLogin initiates the Google OAuth2 login flow.
// @Summary Initiate Google Login
// @Description Redirects the user to Google's OAuth2 consent page.
// @Tags auth
// @Success 307 {string} string "Redirects to Google"
// @Failure 404 {object} middleware.ErrorResponse "Google login not configured"
// @Router /auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	if !h.authService.GoogleLoginEnabled() {
		return domain.NewNotFoundError("Google login is not configured")
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return domain.NewInternalError("Could not generate state for OAuth flow", err)
	}
	state := base64.URLEncoding.EncodeToString(b)

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   c.Secure(),
		SameSite: "Lax",
		Path:     "/",
	})

	return c.Redirect(h.authService.GetGoogleLoginURL(state), fiber.StatusTemporaryRedirect)
}

// GoogleCallback handles the callback from Google OAuth2.
// @Summary Google OAuth2 Callback
// @Description Handles user authentication after Google login, issues JWTs.
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code from Google"
// @Param state query string true "State string for CSRF protection"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid state or code"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	appLogger := logger.Get()
	code := c.Query("code")
	receivedState := c.Query("state")
	expectedState := c.Cookies(oauthStateCookieName)

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   c.Secure(),
		SameSite: "Lax",
		Path:     "/",
	})

	if code == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("code")}
	}
	if receivedState == "" || expectedState == "" || receivedState != expectedState {
		appLogger.Warn("OAuth state mismatch")
		return domain.NewInvalidInputError("OAuth state mismatch or missing")
	}

	accessToken, refreshToken, user, err := h.authService.HandleGoogleCallback(c.Context(), code, receivedState, expectedState)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoogleLoginDisabled):
			return domain.NewNotFoundError("Google login is not configured")
		case errors.Is(err, service.ErrInvalidAuthState), errors.Is(err, service.ErrFailedToExchangeToken):
			return domain.NewError(domain.CodeInvalidInput, "Google login failed", err)
		}
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return domain.NewInternalError("Error processing Google login", err)
	}

	appLogger.Info("Google OAuth callback successful, tokens issued", zap.String("userID", user.ID))
	return c.JSON(dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    service.TokenTypeBearer,
	})
}
