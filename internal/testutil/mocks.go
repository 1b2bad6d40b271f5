package testutil

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/events"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// EventOfType matches a published event by type.
func EventOfType(eventType string) any {
	return mock.MatchedBy(func(e events.Event) bool { return e.Type == eventType })
}

// Revalidations records revalidation signals.
type Revalidations struct {
	mu    sync.Mutex
	paths map[snowflake.ID][]string
}

func (r *Revalidations) Revalidate(_ context.Context, orgID snowflake.ID, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[snowflake.ID][]string)
	}
	r.paths[orgID] = append(r.paths[orgID], paths...)
}

func (r *Revalidations) Paths(orgID snowflake.ID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths[orgID]...)
}
