package orgcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeCanAccessOrg(t *testing.T) {
	member := Scope{OrgID: 10, ActorID: "u1", Role: RoleMember}
	assert.True(t, member.CanAccessOrg(10))
	assert.False(t, member.CanAccessOrg(11))

	super := Scope{ActorID: "root", Role: RoleSuperAdmin}
	assert.True(t, super.CanAccessOrg(11))

	assert.False(t, Scope{Role: RoleAdmin}.CanAccessOrg(0))
	assert.True(t, System(5).CanAccessOrg(99))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, NormalizeRole(" Owner "))
	assert.Equal(t, RoleSuperAdmin, NormalizeRole("superadmin"))
	assert.Equal(t, RoleMember, NormalizeRole("guest"))
	assert.Equal(t, RoleSystem, NormalizeRole("system"))
}

func TestScopeContextRoundTrip(t *testing.T) {
	ctx := WithScope(context.Background(), Scope{OrgID: 7, Role: RoleAdmin})
	ctx = WithRequestID(ctx, " req-1 ")

	scope, ok := ScopeFromContext(ctx)
	assert.True(t, ok)
	assert.EqualValues(t, 7, scope.OrgID)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))

	_, ok = ScopeFromContext(context.Background())
	assert.False(t, ok)
}
