package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("product.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetMany(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Product, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.Product, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, domain.ErrNotFound
		}
	}
	return out, nil
}

func (s *Service) ResolveTentProduct(ctx context.Context, conn *gorm.DB, eventYearID snowflake.ID) (snowflake.ID, bool, error) {
	item, err := s.repo.FindFirstByType(ctx, conn, eventYearID, domain.ProductTypeTentRental)
	if err != nil {
		return 0, false, err
	}
	if item == nil {
		s.log.Debug("no tent product for event year", zap.String("event_year_id", eventYearID.String()))
		return 0, false, nil
	}
	return item.ID, true, nil
}
