package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service is read-only access to the product catalog.
type Service interface {
	GetMany(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Product, error)
	// ResolveTentProduct returns the tent rental product sold for an event year,
	// read through conn so callers inside a transaction see their own view.
	// ok is false when the event year sells no tents.
	ResolveTentProduct(ctx context.Context, conn *gorm.DB, eventYearID snowflake.ID) (id snowflake.ID, ok bool, err error)
}

var (
	ErrNotFound           = errors.New("product_not_found")
	ErrInvalidProductType = errors.New("invalid_product_type")
)
