package service

import (
	"context"
	"errors"

	"perpetua/internal/cache"
	"perpetua/internal/domain"
	"perpetua/internal/logger"
	"perpetua/internal/validation"

	"go.uber.org/zap"
)

// ExerciseService generates sessions and scores finished ones.
type ExerciseService interface {
	GenerateSession(ctx context.Context, userID, exerciseType string) (*domain.ExerciseSession, error)
	Evaluate(ctx context.Context, userID string, payload domain.EvaluationPayload) (*domain.EvaluationResult, error)
}

type exerciseService struct {
	generator domain.ExerciseGenerator
	evaluator domain.Evaluator
	userRepo  domain.UserRepository
	mistakes  domain.MistakeLedger
	txManager domain.TransactionManager
	cache     domain.Cache
	validator *validation.Validator
	policy    domain.ScoringPolicy
	keepLimit int
}

// NewExerciseService wires the exercise pipeline. cache may be nil.
func NewExerciseService(
	generator domain.ExerciseGenerator,
	evaluator domain.Evaluator,
	userRepo domain.UserRepository,
	mistakes domain.MistakeLedger,
	txManager domain.TransactionManager,
	cache domain.Cache,
	policy domain.ScoringPolicy,
	keepLimit int,
) ExerciseService {
	return &exerciseService{
		generator: generator,
		evaluator: evaluator,
		userRepo:  userRepo,
		mistakes:  mistakes,
		txManager: txManager,
		cache:     cache,
		validator: validation.NewValidator(),
		policy:    policy,
		keepLimit: keepLimit,
	}
}

func (s *exerciseService) GenerateSession(ctx context.Context, userID, exerciseType string) (*domain.ExerciseSession, error) {
	appLogger := logger.Get()

	t, err := domain.ParseExerciseType(exerciseType)
	if err != nil {
		return nil, domain.NewInvalidExerciseTypeError(exerciseType)
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.generator.Generate(ctx, t, user.CurrentLevel)
	if err != nil {
		appLogger.Error("Exercise generation failed",
			zap.String("userID", userID),
			zap.String("exerciseType", string(t)),
			zap.String("level", user.CurrentLevel),
			zap.Error(err))
		return nil, mapGenerationError(err)
	}

	appLogger.Info("Exercise session generated",
		zap.String("userID", userID),
		zap.String("exerciseType", string(t)),
		zap.Int("questions", len(session.Questions)))
	return session, nil
}

func mapGenerationError(err error) error {
	var malformed *domain.MalformedExerciseError
	switch {
	case errors.Is(err, domain.ErrProviderFailure):
		return domain.NewLLMServiceError(err)
	case errors.As(err, &malformed), errors.Is(err, domain.ErrMalformedResponse):
		return domain.NewMalformedAIResponseError(err)
	case errors.Is(err, domain.ErrUnsupportedExerciseType):
		return domain.NewError(domain.CodeInvalidExerciseType, "Unsupported exercise type", err)
	default:
		return domain.NewInternalError("Failed to generate exercise", err)
	}
}

func (s *exerciseService) Evaluate(ctx context.Context, userID string, payload domain.EvaluationPayload) (*domain.EvaluationResult, error) {
	appLogger := logger.Get()

	if errs := s.validator.ValidateEvaluationPayload(payload, s.policy); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := s.evaluator.Evaluate(ctx, payload, user.Username)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.IncrementWeeklyScore(txCtx, userID, result.Score); err != nil {
			return err
		}
		for _, wrong := range payload.WrongAnswers {
			if _, err := s.mistakes.Record(txCtx, userID, wrong); err != nil {
				return err
			}
		}
		if len(payload.WrongAnswers) == 0 {
			return nil
		}
		pruned, err := s.mistakes.Prune(txCtx, userID, s.keepLimit)
		if err != nil {
			return err
		}
		if pruned > 0 {
			appLogger.Debug("Pruned old mistakes", zap.String("userID", userID), zap.Int64("deleted", pruned))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.NewNotFoundError("user not found")
		}
		return nil, domain.NewInternalError("Failed to save evaluation", err)
	}

	s.invalidate(ctx, userID)

	appLogger.Info("Exercise evaluated",
		zap.String("userID", userID),
		zap.Int("score", result.Score),
		zap.Int("wrongAnswers", len(payload.WrongAnswers)))
	return &result, nil
}

// invalidate drops cached views that the evaluation just made stale.
// Failures only cost freshness until the TTL expires.
func (s *exerciseService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.LeaderboardKey(), cache.CoachingKey(userID)); err != nil {
		logger.Get().Warn("Failed to invalidate caches after evaluation", zap.String("userID", userID), zap.Error(err))
	}
}

func (s *exerciseService) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load user", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user not found")
	}
	return user, nil
}
