// @title Perpetua API
// @version 1.0
// @description API for the Perpetua language-learning application.
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"perpetua/internal/adapter"
	"perpetua/internal/adapter/evaluator"
	"perpetua/internal/adapter/exercisegen"
	"perpetua/internal/adapter/llm"
	"perpetua/internal/cache"
	"perpetua/internal/config"
	"perpetua/internal/database"
	"perpetua/internal/domain"
	"perpetua/internal/logger"
	"perpetua/internal/repository"
	"perpetua/internal/service"

	"go.uber.org/zap"
)

func main() {
	migrateOnStart := flag.Bool("migrate", false, "apply pending database migrations before serving")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *migrateOnStart {
		if err := database.MigrateUp(ctx, db, cfg.DB.Driver); err != nil {
			appLogger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM provider", zap.Error(err))
	}
	gateway := llm.NewGateway(provider, cfg.LLM.Timeout)
	appLogger.Info("LLM gateway initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", provider.ModelID()),
	)

	prompts, err := exercisegen.NewPromptBuilder(cfg.Exercise.Topics, cfg.Exercise.NativeLanguage, nil)
	if err != nil {
		appLogger.Fatal("Invalid exercise topic pool", zap.Error(err))
	}
	normalizer, err := exercisegen.NewNormalizer(exercisegen.NormalizerOptions{
		AllowPartial:     cfg.Exercise.AllowPartial,
		InferMissingType: cfg.Exercise.InferMissingType,
	})
	if err != nil {
		appLogger.Fatal("Failed to compile exercise schemas", zap.Error(err))
	}
	generator := exercisegen.NewGenerator(prompts, gateway, normalizer)

	policy, err := domain.ParseScoringPolicy(cfg.Evaluation.ScoringPolicy)
	if err != nil {
		appLogger.Fatal("Invalid scoring policy", zap.Error(err))
	}
	llmEvaluator := evaluator.NewLLMEvaluator(gateway, policy, cfg.Evaluation.Temperature)

	userRepository := repository.NewSQLXUserRepository(db)
	mistakeRepository := repository.NewSQLXMistakeRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	authService, err := service.NewAuthService(userRepository, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	exerciseService := service.NewExerciseService(generator, llmEvaluator, userRepository, mistakeRepository,
		txManager, cacheAdapter, policy, cfg.Mistakes.KeepLimit)
	userService := service.NewUserService(userRepository, mistakeRepository, cacheAdapter, cfg.Cache.LeaderboardTTL)
	coachingService := service.NewCoachingService(userRepository, mistakeRepository, gateway, cacheAdapter, cfg.Cache.CoachingTTL)
	appLogger.Info("Services initialized", zap.String("scoring_policy", cfg.Evaluation.ScoringPolicy))

	app := newServer(serverDeps{
		cfg:      cfg,
		auth:     authService,
		exercise: exerciseService,
		users:    userService,
		coaching: coachingService,
		redis:    redisClient,
	})

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
