package domain

import (
	"context"
	"errors"
	"time"

	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"github.com/oldski/sportsfestDashboard-sub002/pkg/db/pagination"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service records who changed what. Writes are best effort from the caller's
// point of view: the mutation has already committed.
type Service interface {
	AuditLog(ctx context.Context, scope orgcontext.Scope, action string, targetType string, targetID string, metadata map[string]any) error
	List(ctx context.Context, scope orgcontext.Scope, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrInvalidAction       = errors.New("invalid_action")
)
