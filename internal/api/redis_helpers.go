package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const viewDedupTTL = 24 * time.Hour

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

type viewDeduper interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// viewerKey 为一次浏览生成去重 key：登录用户按用户去重，匿名访客按 UTC 日共用一个名额。
func viewerKey(resumeID, viewerID uint, now time.Time) string {
	if viewerID == 0 {
		return fmt.Sprintf("resume_view:%d:anon_%s", resumeID, now.UTC().Format("2006-01-02"))
	}
	return fmt.Sprintf("resume_view:%d:%d", resumeID, viewerID)
}

// claimView 返回该访客在 24 小时内是否第一次浏览。
func claimView(ctx context.Context, client viewDeduper, resumeID, viewerID uint, now time.Time) (bool, error) {
	return client.SetNX(ctx, viewerKey(resumeID, viewerID, now), 1, viewDedupTTL).Result()
}

func uploadCounterKey(userID uint, now time.Time) string {
	return fmt.Sprintf("photo_uploads:%d:%s", userID, now.UTC().Format("2006-01-02"))
}
