package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const productColumns = `id, event_year_id, name, type, price_amount, max_per_org, active, metadata, created_at`

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+`
		 FROM products WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindFirstByType(ctx context.Context, db *gorm.DB, eventYearID snowflake.ID, productType domain.ProductType) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+`
		 FROM products
		 WHERE event_year_id = ? AND type = ? AND active = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		eventYearID,
		productType,
		true,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}
