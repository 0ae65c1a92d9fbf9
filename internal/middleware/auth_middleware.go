package middleware

import (
	"context"
	"fmt"
	"strings"

	"perpetua/internal/dto"
	"perpetua/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserIDKey           = "userID" // Key for storing UserID in fiber.Ctx locals
	accessTokenType     = "access"
)

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
}

// Protected is a middleware function that protects routes by requiring a valid JWT.
// It validates the token using the provided validator and sets the userID in the context.
func Protected(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "MISSING_AUTH_HEADER",
				Message: "Authorization header is missing",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_AUTH_SCHEME",
				Message: "Authorization scheme is not Bearer",
				Status:  fiber.StatusUnauthorized,
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "EMPTY_TOKEN",
				Message: "Token is empty",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := validator.ValidateJWT(c.Context(), tokenString)
		if err != nil {
			logger.Get().Debug("Rejected bearer token", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Token is invalid or expired",
				Status:  fiber.StatusUnauthorized,
			})
		}

		// Refresh tokens only work on /auth/refresh.
		if claims.TokenType != accessTokenType {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN_TYPE",
				Message: fmt.Sprintf("Invalid token type: expected access, got %s", claims.TokenType),
				Status:  fiber.StatusForbidden,
			})
		}

		c.Locals(UserIDKey, claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by Protected.
func UserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals(UserIDKey).(string)
	return userID, ok && userID != ""
}
