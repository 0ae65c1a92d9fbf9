package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"perpetua/internal/cache"
	"perpetua/internal/domain"
	"perpetua/internal/logger"

	"go.uber.org/zap"
)

const (
	// CoachingMistakeWindow is how many recent mistakes the advice is based on.
	CoachingMistakeWindow = 10
	coachingTemperature   = 0.7

	CoachingFallback = "I couldn't prepare personal advice for you today, but you're doing great. Keep practising!"
)

// CoachingService turns a user's recent mistakes into short advice.
type CoachingService interface {
	GetCoachingFeedback(ctx context.Context, userID string) (string, error)
}

type coachingService struct {
	userRepo domain.UserRepository
	mistakes domain.MistakeLedger
	gateway  domain.TextGenerator
	cache    domain.Cache
	ttl      time.Duration
}

// NewCoachingService creates a CoachingService. cache may be nil.
func NewCoachingService(
	userRepo domain.UserRepository,
	mistakes domain.MistakeLedger,
	gateway domain.TextGenerator,
	cache domain.Cache,
	ttl time.Duration,
) CoachingService {
	return &coachingService{
		userRepo: userRepo,
		mistakes: mistakes,
		gateway:  gateway,
		cache:    cache,
		ttl:      ttl,
	}
}

// PraiseFor is returned when the user has no recent mistakes.
func PraiseFor(username string) string {
	return fmt.Sprintf("You're doing great, %s! No mistakes in your recent exercises. Keep the streak going.", username)
}

func (s *coachingService) GetCoachingFeedback(ctx context.Context, userID string) (string, error) {
	appLogger := logger.Get()
	cacheKey := cache.CoachingKey(userID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			appLogger.Warn("Coaching cache read failed", zap.String("userID", userID), zap.Error(err))
		}
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", domain.NewInternalError("Failed to load user", err)
	}
	if user == nil {
		return "", domain.NewNotFoundError("user not found")
	}

	mistakes, err := s.mistakes.Recent(ctx, userID, CoachingMistakeWindow)
	if err != nil {
		return "", domain.NewInternalError("Failed to load mistakes", err)
	}

	if len(mistakes) == 0 {
		return PraiseFor(user.Username), nil
	}

	text, err := s.gateway.Generate(ctx, buildCoachingPrompt(user.Username, mistakes), domain.WithTemperature(coachingTemperature))
	if err != nil {
		appLogger.Warn("Coaching advice generation failed, using fallback", zap.String("userID", userID), zap.Error(err))
		return CoachingFallback, nil
	}
	advice := strings.Trim(strings.TrimSpace(text), `"`)
	if advice == "" {
		return CoachingFallback, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, advice, s.ttl); err != nil {
			appLogger.Warn("Failed to cache coaching advice", zap.String("userID", userID), zap.Error(err))
		}
	}
	return advice, nil
}

func buildCoachingPrompt(username string, mistakes []domain.UserMistake) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly, positive AI coach in Perpetua, a language learning app. The learner's name is %s.\n", username)
	fmt.Fprintf(&b, "These are mistakes %s made recently:\n\n", username)
	for _, m := range mistakes {
		fmt.Fprintf(&b, "- Question: %q, wrong answer: %q, correct answer: %q\n", m.QuestionText, m.UserAnswer, m.CorrectAnswer)
	}
	b.WriteString("\nTASK:\n")
	fmt.Fprintf(&b, "Looking at these mistakes as a whole, write 1-2 short, warm and motivating sentences of advice for %s.\n", username)
	b.WriteString("- Point out a grammar rule or vocabulary area they seem to struggle with, if there is one.\n")
	b.WriteString("- Never be judgmental or negative. Always be encouraging.\n")
	b.WriteString("Return only the advice text and nothing else.\n")
	return b.String()
}
