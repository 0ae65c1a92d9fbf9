package main

import (
	"context"
	"time"

	"perpetua/internal/config"
	"perpetua/internal/handler"
	"perpetua/internal/middleware"
	"perpetua/internal/service"

	_ "perpetua/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

type serverDeps struct {
	cfg      *config.Config
	auth     service.AuthService
	exercise service.ExerciseService
	users    service.UserService
	coaching service.CoachingService
	redis    *redis.Client
}

// healthCheck reports degraded when Redis does not answer a ping.
func healthCheck(redisClient *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "redis": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// newServer builds the fiber app with every route registered.
func newServer(d serverDeps) *fiber.App {
	authHandler := handler.NewAuthHandler(d.auth)
	exerciseHandler := handler.NewExerciseHandler(d.exercise)
	userHandler := handler.NewUserHandler(d.users, d.coaching)
	validationMiddleware := middleware.NewValidationMiddleware()

	app := fiber.New(fiber.Config{
		ReadTimeout:  d.cfg.Server.ReadTimeout,
		WriteTimeout: d.cfg.Server.WriteTimeout,
		IdleTimeout:  d.cfg.Server.WriteTimeout,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", healthCheck(d.redis))

	apiGroup := app.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Get("/google/login", authHandler.GoogleLogin)
	authGroup.Get("/google/callback", authHandler.GoogleCallback)

	protected := middleware.Protected(d.auth)

	apiGroup.Get("/exercise", protected, exerciseHandler.GetExercise)
	apiGroup.Post("/exercise/evaluate", protected, exerciseHandler.EvaluateExercise)

	userGroup := apiGroup.Group("/users", protected)
	userGroup.Get("/me", userHandler.GetMyProfile)
	userGroup.Put("/me/level", userHandler.UpdateMyLevel)
	userGroup.Get("/me/mistakes", validationMiddleware.ValidateLimit(d.cfg.Mistakes.RecentLimit), userHandler.GetMyMistakes)
	userGroup.Get("/me/coaching", userHandler.GetMyCoaching)
	userGroup.Get("/leaderboard", validationMiddleware.ValidateLimit(handler.DefaultLeaderboardLimit), userHandler.GetLeaderboard)

	return app
}
