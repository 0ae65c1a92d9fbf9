package cache

import "strings"

const (
	GlobalKeyPrefix = "perpetua"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// LeaderboardKey caches the weekly ranking. Callers store the widest ranking
// they serve and slice it per request, so one key covers every limit.
func LeaderboardKey() string {
	return GenerateCacheKey("user", "leaderboard", "weekly")
}

// CoachingKey caches the coaching advice for one user.
func CoachingKey(userID string) string {
	return GenerateCacheKey("coaching", "feedback", userID)
}
