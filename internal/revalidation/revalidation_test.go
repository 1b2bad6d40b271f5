package revalidation

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestNewWithoutClientIsNoop(t *testing.T) {
	publisher := New(Params{Log: zaptest.NewLogger(t)})
	assert.IsType(t, Noop{}, publisher)
	publisher.Revalidate(context.Background(), 1, TeamsPath)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/dashboard/teams/12", TeamPath(12))
	assert.Equal(t, "/dashboard/players/9", PlayerPath(9))
}

func TestRedisPublisherSwallowsErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	publisher := NewRedisPublisher(client, zaptest.NewLogger(t))
	assert.NotPanics(t, func() {
		publisher.Revalidate(context.Background(), 1, TeamPath(2))
	})
}
