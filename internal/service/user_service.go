package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"perpetua/internal/cache"
	"perpetua/internal/domain"
	"perpetua/internal/logger"
	"perpetua/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// leaderboardDepth is the widest ranking cached; requests slice it.
const leaderboardDepth = validation.MaxListLimit

// UserService defines the interface for user-related operations.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateLevel(ctx context.Context, userID, level string) (*domain.User, error)
	GetRecentMistakes(ctx context.Context, userID string, limit int) ([]domain.UserMistake, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

type userServiceImpl struct {
	userRepo       domain.UserRepository
	mistakes       domain.MistakeLedger
	cache          domain.Cache
	leaderboardTTL time.Duration
	validator      *validation.Validator
	sfGroup        singleflight.Group
}

// NewUserService creates a new instance of UserService. cache may be nil.
func NewUserService(
	userRepo domain.UserRepository,
	mistakes domain.MistakeLedger,
	cache domain.Cache,
	leaderboardTTL time.Duration,
) UserService {
	return &userServiceImpl{
		userRepo:       userRepo,
		mistakes:       mistakes,
		cache:          cache,
		leaderboardTTL: leaderboardTTL,
		validator:      validation.NewValidator(),
	}
}

func (s *userServiceImpl) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load user", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user not found")
	}
	return user, nil
}

func (s *userServiceImpl) UpdateLevel(ctx context.Context, userID, level string) (*domain.User, error) {
	if errs := s.validator.ValidateLevel(level); len(errs) > 0 {
		return nil, errs
	}
	if err := s.userRepo.UpdateLevel(ctx, userID, level); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.NewNotFoundError("user not found")
		}
		return nil, domain.NewInternalError("Failed to update level", err)
	}
	logger.Get().Info("User level updated", zap.String("userID", userID), zap.String("level", level))
	return s.GetProfile(ctx, userID)
}

func (s *userServiceImpl) GetRecentMistakes(ctx context.Context, userID string, limit int) ([]domain.UserMistake, error) {
	if errs := s.validator.ValidateLimit(limit); len(errs) > 0 {
		return nil, errs
	}
	mistakes, err := s.mistakes.Recent(ctx, userID, limit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load mistakes", err)
	}
	return mistakes, nil
}

func (s *userServiceImpl) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	appLogger := logger.Get()
	if errs := s.validator.ValidateLimit(limit); len(errs) > 0 {
		return nil, errs
	}
	cacheKey := cache.LeaderboardKey()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			var entries []domain.LeaderboardEntry
			errDecode := json.Unmarshal([]byte(cached), &entries)
			if errDecode == nil {
				return head(entries, limit), nil
			}
			appLogger.Warn("Discarding undecodable leaderboard cache entry", zap.Error(errDecode))
		case !errors.Is(err, domain.ErrCacheMiss):
			appLogger.Warn("Leaderboard cache read failed", zap.Error(err))
		}
	}

	// Concurrent misses share one query.
	res, err, _ := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		users, err := s.userRepo.ListTopByWeeklyScore(ctx, leaderboardDepth)
		if err != nil {
			return nil, err
		}
		entries := make([]domain.LeaderboardEntry, 0, len(users))
		for i, u := range users {
			entries = append(entries, domain.LeaderboardEntry{
				Rank:        i + 1,
				UserID:      u.ID,
				Username:    u.Username,
				WeeklyScore: u.WeeklyScore,
				Level:       u.CurrentLevel,
			})
		}

		// Cache-aside race: an evaluation that commits and invalidates while this
		// query runs is overwritten by the older ranking until leaderboardTTL expires.
		if s.cache != nil {
			if data, errEncode := json.Marshal(entries); errEncode == nil {
				if errSet := s.cache.Set(ctx, cacheKey, string(data), s.leaderboardTTL); errSet != nil {
					appLogger.Warn("Failed to cache leaderboard", zap.Error(errSet))
				}
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, domain.NewInternalError("Failed to load leaderboard", err)
	}

	entries, ok := res.([]domain.LeaderboardEntry)
	if !ok {
		return nil, domain.NewInternalError("Failed to load leaderboard", fmt.Errorf("unexpected type from singleflight.Do: %T", res))
	}
	return head(entries, limit), nil
}

func head(entries []domain.LeaderboardEntry, limit int) []domain.LeaderboardEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
