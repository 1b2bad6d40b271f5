package orgcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleSystem     = "system"
)

// Scope identifies who is acting and on behalf of which organization.
// Every service operation receives it explicitly.
type Scope struct {
	OrgID   snowflake.ID
	ActorID string
	Role    string
}

// CrossTenant reports whether the actor may address any organization's data.
func (s Scope) CrossTenant() bool {
	switch s.Role {
	case RoleSuperAdmin, RoleSystem:
		return true
	default:
		return false
	}
}

// CanAccessOrg reports whether the scope may touch rows owned by orgID.
func (s Scope) CanAccessOrg(orgID snowflake.ID) bool {
	if s.CrossTenant() {
		return true
	}
	return s.OrgID != 0 && s.OrgID == orgID
}

// System returns the scope used by internal callers such as payment notifications.
func System(orgID snowflake.ID) Scope {
	return Scope{OrgID: orgID, ActorID: "system", Role: RoleSystem}
}

// NormalizeRole maps free-form role strings onto the known roles.
func NormalizeRole(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "owner", "org_admin":
		return RoleAdmin
	case "super_admin", "superadmin":
		return RoleSuperAdmin
	case "system":
		return RoleSystem
	case "member", "":
		return RoleMember
	default:
		return RoleMember
	}
}

type scopeContextKey struct{}
type requestIDContextKey struct{}

// WithScope stores the scope in the context. Only the HTTP boundary uses it;
// services take the scope as a parameter.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext returns the scope from context, if set.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	scope, ok := ctx.Value(scopeContextKey{}).(Scope)
	return scope, ok
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDContextKey{}).(string)
	return value
}
