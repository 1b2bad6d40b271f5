package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID) (*domain.Tracking, error) {
	var item domain.Tracking
	if err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, event_year_id, tent_product_id, quantity_purchased,
			max_allowed, remaining_allowed, created_at, updated_at
		 FROM tent_purchase_tracking
		 WHERE org_id = ? AND event_year_id = ?`,
		orgID,
		eventYearID,
	).Scan(&item).Error; err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// The cap check and the increment are one statement, so concurrent reservers
// cannot both pass the check.
func (r *repo) IncrementIfWithinCap(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID, quantity int, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE tent_purchase_tracking
		 SET remaining_allowed = max_allowed - (quantity_purchased + ?),
			 quantity_purchased = quantity_purchased + ?,
			 updated_at = ?
		 WHERE org_id = ? AND event_year_id = ?
		   AND quantity_purchased + ? <= max_allowed`,
		quantity,
		quantity,
		now,
		orgID,
		eventYearID,
		quantity,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, tracking *domain.Tracking) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO tent_purchase_tracking (
			id, org_id, event_year_id, tent_product_id, quantity_purchased,
			max_allowed, remaining_allowed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (org_id, event_year_id) DO NOTHING`,
		tracking.ID,
		tracking.OrgID,
		tracking.EventYearID,
		tracking.TentProductID,
		tracking.QuantityPurchased,
		tracking.MaxAllowed,
		tracking.RemainingAllowed,
		tracking.CreatedAt,
		tracking.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
