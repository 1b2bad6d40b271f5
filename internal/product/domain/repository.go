package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)
	FindFirstByType(ctx context.Context, db *gorm.DB, eventYearID snowflake.ID, productType ProductType) (*Product, error)
}
