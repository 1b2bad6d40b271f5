package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"gorm.io/gorm"
)

// MaxTentsPerOrganization caps tents per organization and event year.
const MaxTentsPerOrganization = 2

type Tracking struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID             snowflake.ID `json:"org_id" gorm:"column:org_id;not null;uniqueIndex:ux_tent_tracking_scope,priority:1"`
	EventYearID       snowflake.ID `json:"event_year_id" gorm:"not null;uniqueIndex:ux_tent_tracking_scope,priority:2"`
	TentProductID     snowflake.ID `json:"tent_product_id" gorm:"not null"`
	QuantityPurchased int          `json:"quantity_purchased" gorm:"not null"`
	MaxAllowed        int          `json:"max_allowed" gorm:"not null"`
	RemainingAllowed  int          `json:"remaining_allowed" gorm:"not null"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (Tracking) TableName() string { return "tent_purchase_tracking" }

type ReserveRequest struct {
	OrgID         snowflake.ID
	EventYearID   snowflake.ID
	TentProductID snowflake.ID
	Quantity      int
}

type ReserveResult struct {
	// Tracked is the quantity added to the tracker; zero when tracking was skipped.
	Tracked  int
	Skipped  bool
	Tracking *Tracking
}

// QuotaExceededError reports a reservation that would pass the cap.
type QuotaExceededError struct {
	Current   int
	Requested int
	Max       int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("Organization would exceed %d-tent limit (current: %d, requested: %d)", e.Max, e.Current, e.Requested)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID) (*Tracking, error)
	// IncrementIfWithinCap adds quantity in one conditional statement and
	// reports whether the row was updated.
	IncrementIfWithinCap(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID, quantity int, now time.Time) (bool, error)
	// InsertIfAbsent reports false when another writer created the scope row first.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, tracking *Tracking) (bool, error)
}

type Service interface {
	// Reserve runs on the caller's transaction so a quota failure rolls back
	// everything the caller did before it.
	Reserve(ctx context.Context, tx *gorm.DB, req ReserveRequest) (*ReserveResult, error)
	GetTracking(ctx context.Context, scope orgcontext.Scope, eventYearID snowflake.ID) (*Tracking, error)
}

var (
	ErrQuotaExceeded   = errors.New("tent_quota_exceeded")
	ErrInvalidQuantity = errors.New("invalid_tent_quantity")
	ErrContention      = errors.New("tent_tracking_contention")
)
