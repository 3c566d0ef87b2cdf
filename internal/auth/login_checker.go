package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (lc *LoginChecker) GetSession(ctx context.Context, token string) (string, error) {
	sessionKey := sessionKeyPrefix + token
	fields, err := lc.redisClient.HGetAll(ctx, sessionKey).Result()
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", ErrSessionNotFound
	}

	createdAtUnix, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return "", err
	}

	// an expired session is reported the same as a missing one
	if time.Since(time.Unix(createdAtUnix, 0)) > lc.ttl {
		return "", ErrSessionNotFound
	}

	return fields["user_id"], nil
}
