package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionOrderCreated      = "order.created"
	ActionOrderCancelled    = "order.cancelled"
	ActionPaymentRecorded   = "payment.recorded"
	ActionOrderReconciled   = "order.reconciled"
	ActionOrderFulfilled    = "order.fulfilled"
	ActionRosterAdded       = "roster.player_added"
	ActionRosterRemoved     = "roster.player_removed"
	ActionRosterTransferred = "roster.player_transferred"
	ActionCaptainToggled    = "roster.captain_toggled"
	ActionRosterGenerated   = "roster.generated"
	ActionWarningsResolved  = "roster.transfer_warnings_resolved"
)

type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID      *snowflake.ID     `json:"org_id,omitempty"`
	ActorType  string            `json:"actor_type"`
	ActorID    *string           `json:"actor_id,omitempty"`
	Action     string            `json:"action"`
	TargetType string            `json:"target_type"`
	TargetID   *string           `json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	OrgID      snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}
