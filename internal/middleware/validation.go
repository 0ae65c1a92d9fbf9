package middleware

import (
	"strconv"

	"perpetua/internal/domain"
	"perpetua/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const validatedLimitKey = "validated_limit"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateLimit validates the optional limit query parameter, falling back
// to defaultLimit when it is absent.
func (vm *ValidationMiddleware) ValidateLimit(defaultLimit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := defaultLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return domain.ValidationErrors{
					domain.NewInvalidFormatError("limit", raw),
				}
			}
			limit = parsed
		}

		if errors := vm.validator.ValidateLimit(limit); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		c.Locals(validatedLimitKey, limit)
		return c.Next()
	}
}

// Limit returns the value stored by ValidateLimit, or fallback.
func Limit(c *fiber.Ctx, fallback int) int {
	if limit, ok := c.Locals(validatedLimitKey).(int); ok {
		return limit
	}
	return fallback
}
