package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tradebook/internal/config"
)

const keyExportClient = "export:client:%s"

// ExportLimiter bounds how often one client may render documents.
// A nil limiter allows everything.
type ExportLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewExportLimiter(cfg config.Config) (*ExportLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	return NewExportLimiterWithClient(client, limitCfg.ExportRate, limitCfg.ExportBurst)
}

func NewExportLimiterWithClient(client *redis.Client, rate float64, burst int) (*ExportLimiter, error) {
	if rate <= 0 || burst <= 0 {
		return nil, errors.New("export rate limit must be positive")
	}
	return &ExportLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}, nil
}

func (l *ExportLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *ExportLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyExportClient, strings.TrimSpace(clientKey)), l.rate, l.burst)
}
