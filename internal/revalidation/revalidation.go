// Package revalidation tells read views that organization data changed.
// Delivery is fire-and-forget.
package revalidation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	Channel        = "sportsfest:revalidate"
	publishTimeout = 2 * time.Second
)

var Module = fx.Module("revalidation",
	fx.Provide(New),
)

type Publisher interface {
	Revalidate(ctx context.Context, orgID snowflake.ID, paths ...string)
}

func TeamPath(teamID snowflake.ID) string {
	return "/dashboard/teams/" + teamID.String()
}

func PlayerPath(playerID snowflake.ID) string {
	return "/dashboard/players/" + playerID.String()
}

const (
	TeamsPath  = "/dashboard/teams"
	OrdersPath = "/dashboard/orders"
)

type Message struct {
	OrgID string   `json:"org_id"`
	Paths []string `json:"paths"`
	At    int64    `json:"at"`
}

type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

type Params struct {
	fx.In

	Client *redis.Client `optional:"true"`
	Log    *zap.Logger
}

func New(p Params) Publisher {
	if p.Client == nil {
		return Noop{}
	}
	return NewRedisPublisher(p.Client, p.Log)
}

func NewRedisPublisher(client *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log.Named("revalidation")}
}

// Revalidate never fails the caller; errors are logged.
func (r *RedisPublisher) Revalidate(ctx context.Context, orgID snowflake.ID, paths ...string) {
	if len(paths) == 0 {
		return
	}
	body, err := json.Marshal(Message{OrgID: orgID.String(), Paths: paths, At: time.Now().Unix()})
	if err != nil {
		r.log.Warn("failed to encode revalidation", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, Channel, body).Err(); err != nil {
		r.log.Warn("failed to publish revalidation",
			zap.String("org_id", orgID.String()),
			zap.Strings("paths", paths),
			zap.Error(err),
		)
	}
}

type Noop struct{}

func (Noop) Revalidate(context.Context, snowflake.ID, ...string) {}
