// Package ratelimit throttles payment provider callbacks per organization.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyNotificationOrg = "ratelimit:notifications:org:%s"

type allower interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*Result, error)
}

type NotificationLimiter struct {
	bucket allower
	rate   float64
	burst  int
	log    *zap.Logger
}

type Params struct {
	fx.In

	Cfg    config.Config
	Client *redis.Client `optional:"true"`
	Log    *zap.Logger
}

// NewNotificationLimiter returns nil when redis is not configured; a nil
// limiter allows everything.
func NewNotificationLimiter(p Params) *NotificationLimiter {
	if p.Client == nil || p.Cfg.NotificationRate <= 0 || p.Cfg.NotificationBurst <= 0 {
		return nil
	}
	return newNotificationLimiter(NewTokenBucket(p.Client), p.Cfg.NotificationRate, p.Cfg.NotificationBurst, p.Log)
}

func newNotificationLimiter(bucket allower, rate float64, burst int, log *zap.Logger) *NotificationLimiter {
	return &NotificationLimiter{
		bucket: bucket,
		rate:   rate,
		burst:  burst,
		log:    log.Named("ratelimit"),
	}
}

// Allow fails open: a redis error lets the request through.
func (l *NotificationLimiter) Allow(ctx context.Context, orgID snowflake.ID) *Result {
	if l == nil {
		return &Result{Allowed: true}
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyNotificationOrg, orgID.String()), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed", zap.String("org_id", orgID.String()), zap.Error(err))
		return &Result{Allowed: true}
	}
	return res
}
