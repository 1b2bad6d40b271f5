package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/eventyear/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.EventYear, error) {
	var item domain.EventYear
	if err := db.WithContext(ctx).Raw(
		`SELECT id, year, name, is_active, deleted_at, created_at
		 FROM event_years
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&item).Error; err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB) (*domain.EventYear, error) {
	var item domain.EventYear
	if err := db.WithContext(ctx).Raw(
		`SELECT id, year, name, is_active, deleted_at, created_at
		 FROM event_years
		 WHERE is_active = ? AND deleted_at IS NULL
		 ORDER BY year DESC
		 LIMIT 1`,
		true,
	).Scan(&item).Error; err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
