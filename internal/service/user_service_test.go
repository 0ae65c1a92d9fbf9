package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"perpetua/internal/cache"
	"perpetua/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetProfile(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, new(MockMistakeLedger), nil, time.Minute)

	repo.On("GetUserByID", ctx, "user-1").Return(learner, nil)
	repo.On("GetUserByID", ctx, "ghost").Return(nil, nil)
	repo.On("GetUserByID", ctx, "broken").Return(nil, errors.New("connection reset"))

	got, err := svc.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ayse", got.Username)

	_, err = svc.GetProfile(ctx, "ghost")
	assertDomainCode(t, err, domain.CodeNotFound)

	_, err = svc.GetProfile(ctx, "broken")
	assertDomainCode(t, err, domain.CodeInternal)
}

func TestUserService_UpdateLevel(t *testing.T) {
	ctx := context.Background()

	t.Run("valid level", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, new(MockMistakeLedger), nil, time.Minute)
		updated := &domain.User{ID: "user-1", Username: "ayse", CurrentLevel: "C1"}
		repo.On("UpdateLevel", ctx, "user-1", "C1").Return(nil)
		repo.On("GetUserByID", ctx, "user-1").Return(updated, nil)

		got, err := svc.UpdateLevel(ctx, "user-1", "C1")
		require.NoError(t, err)
		assert.Equal(t, "C1", got.CurrentLevel)
	})

	t.Run("invalid level", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, new(MockMistakeLedger), nil, time.Minute)

		_, err := svc.UpdateLevel(ctx, "user-1", "Z9")
		var verrs domain.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		repo.AssertNotCalled(t, "UpdateLevel", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, new(MockMistakeLedger), nil, time.Minute)
		repo.On("UpdateLevel", ctx, "ghost", "A2").Return(domain.ErrUserNotFound)

		_, err := svc.UpdateLevel(ctx, "ghost", "A2")
		assertDomainCode(t, err, domain.CodeNotFound)
	})
}

func TestUserService_GetRecentMistakes(t *testing.T) {
	ctx := context.Background()
	ledger := new(MockMistakeLedger)
	svc := NewUserService(new(MockUserRepository), ledger, nil, time.Minute)
	rows := []domain.UserMistake{{ID: "m2", Seq: 2}, {ID: "m1", Seq: 1}}
	ledger.On("Recent", ctx, "user-1", 10).Return(rows, nil)

	got, err := svc.GetRecentMistakes(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	_, err = svc.GetRecentMistakes(ctx, "user-1", 0)
	assert.Error(t, err)
}

func rankedUsers(n int) []*domain.User {
	users := make([]*domain.User, n)
	for i := range users {
		users[i] = &domain.User{ID: string(rune('a' + i)), Username: string(rune('a' + i)), WeeklyScore: 100 - i, CurrentLevel: "A1"}
	}
	return users
}

func TestUserService_GetLeaderboard(t *testing.T) {
	ctx := context.Background()
	key := cache.LeaderboardKey()

	t.Run("miss loads, ranks and caches", func(t *testing.T) {
		repo := new(MockUserRepository)
		c := new(MockCache)
		svc := NewUserService(repo, new(MockMistakeLedger), c, time.Minute)

		c.On("Get", ctx, key).Return("", domain.ErrCacheMiss)
		repo.On("ListTopByWeeklyScore", ctx, leaderboardDepth).Return(rankedUsers(3), nil)
		c.On("Set", ctx, key, mock.AnythingOfType("string"), time.Minute).Return(nil)

		entries, err := svc.GetLeaderboard(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, 100, entries[0].WeeklyScore)
		assert.Equal(t, 2, entries[1].Rank)
		c.AssertExpectations(t)
	})

	t.Run("hit skips the repository", func(t *testing.T) {
		repo := new(MockUserRepository)
		c := new(MockCache)
		svc := NewUserService(repo, new(MockMistakeLedger), c, time.Minute)

		cached, err := json.Marshal([]domain.LeaderboardEntry{{Rank: 1, Username: "zeynep", WeeklyScore: 340}})
		require.NoError(t, err)
		c.On("Get", ctx, key).Return(string(cached), nil)

		entries, err := svc.GetLeaderboard(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "zeynep", entries[0].Username)
		repo.AssertNotCalled(t, "ListTopByWeeklyScore", mock.Anything, mock.Anything)
	})

	t.Run("cache errors fall through to the repository", func(t *testing.T) {
		repo := new(MockUserRepository)
		c := new(MockCache)
		svc := NewUserService(repo, new(MockMistakeLedger), c, time.Minute)

		c.On("Get", ctx, key).Return("", errors.New("redis down"))
		repo.On("ListTopByWeeklyScore", ctx, leaderboardDepth).Return(rankedUsers(1), nil)
		c.On("Set", ctx, key, mock.Anything, time.Minute).Return(errors.New("redis down"))

		entries, err := svc.GetLeaderboard(ctx, 5)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("concurrent misses without cache share one query", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, new(MockMistakeLedger), nil, time.Minute)

		release := make(chan struct{})
		repo.On("ListTopByWeeklyScore", ctx, leaderboardDepth).
			Run(func(mock.Arguments) { <-release }).
			Return(rankedUsers(2), nil)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				entries, err := svc.GetLeaderboard(ctx, 10)
				assert.NoError(t, err)
				assert.Len(t, entries, 2)
			}()
		}
		// Let every goroutine join the in-flight call before it returns.
		time.Sleep(100 * time.Millisecond)
		close(release)
		wg.Wait()

		repo.AssertNumberOfCalls(t, "ListTopByWeeklyScore", 1)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, new(MockMistakeLedger), nil, time.Minute)
		repo.On("ListTopByWeeklyScore", ctx, leaderboardDepth).Return(nil, errors.New("timeout"))

		_, err := svc.GetLeaderboard(ctx, 10)
		assertDomainCode(t, err, domain.CodeInternal)
	})
}
