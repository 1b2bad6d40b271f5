package testutil

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"go.uber.org/zap"
)

// AllowAll grants every request.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, orgcontext.Scope, string, string) error { return nil }

// Authorizer returns the casbin-backed authorizer with seeded policies and no persistence.
func Authorizer(t *testing.T) authorization.Service {
	t.Helper()
	enforcer, err := authorization.NewMemoryEnforcer()
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	return authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func MemberScope(orgID int64) orgcontext.Scope {
	return orgcontext.Scope{OrgID: snowflake.ID(orgID), ActorID: "member-1", Role: orgcontext.RoleMember}
}

func AdminScope(orgID int64) orgcontext.Scope {
	return orgcontext.Scope{OrgID: snowflake.ID(orgID), ActorID: "admin-1", Role: orgcontext.RoleAdmin}
}

func SystemScope(orgID int64) orgcontext.Scope {
	return orgcontext.System(snowflake.ID(orgID))
}

func SuperAdminScope() orgcontext.Scope {
	return orgcontext.Scope{ActorID: "root", Role: orgcontext.RoleSuperAdmin}
}
