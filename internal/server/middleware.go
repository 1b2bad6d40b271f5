package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"github.com/oldski/sportsfestDashboard-sub002/internal/ratelimit"
)

// Identity is asserted by the gateway in front of this service.
const (
	HeaderOrg   = "X-Org-ID"
	HeaderActor = "X-Actor-ID"
	HeaderRole  = "X-Actor-Role"
)

// ScopeRequired builds the caller's scope from the gateway headers.
func ScopeRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(HeaderActor))
		if actor == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		var orgID snowflake.ID
		if raw := strings.TrimSpace(c.GetHeader(HeaderOrg)); raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil || parsed <= 0 {
				AbortWithError(c, newValidationError("org_id", "invalid_org_id", "invalid organization id"))
				return
			}
			orgID = parsed
		}

		scope := orgcontext.Scope{
			OrgID:   orgID,
			ActorID: actor,
			Role:    orgcontext.NormalizeRole(c.GetHeader(HeaderRole)),
		}
		c.Request = c.Request.WithContext(orgcontext.WithScope(c.Request.Context(), scope))
		c.Next()
	}
}

func scopeFrom(c *gin.Context) orgcontext.Scope {
	scope, _ := orgcontext.ScopeFromContext(c.Request.Context())
	return scope
}

// NotificationRateLimit throttles provider callbacks per organization.
func NotificationRateLimit(limiter *ratelimit.NotificationLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := limiter.Allow(c.Request.Context(), scopeFrom(c).OrgID)
		if res.Allowed {
			c.Next()
			return
		}
		if res.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
		}
		AbortWithError(c, ErrTooManyRequests)
	}
}
