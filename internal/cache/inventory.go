package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	StatsKeyPrefix = "user:%d:stats"
	SessionPrefix  = "session:"
)

const (
	UserTTL  = 5 * time.Minute
	StatsTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func StatsKey(userID uint) string {
	return fmt.Sprintf(StatsKeyPrefix, userID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID), StatsKey(userID))
}

// InvalidateStats drops the cached profile counters of every given user.
func InvalidateStats(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, StatsKey(id))
	}
	Invalidate(ctx, keys...)
}
