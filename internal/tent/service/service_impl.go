package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	productdomain "github.com/oldski/sportsfestDashboard-sub002/internal/product/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ProductSvc productdomain.Service
	Authz      authorization.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	productSvc productdomain.Service
	authz      authorization.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("tent.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		productSvc: p.ProductSvc,
		authz:      p.Authz,
	}
}

// Reserve never reads then writes: the cap is checked by the UPDATE itself.
// The scope row is created on first use; losing that race falls back to the
// conditional update once more.
func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, req domain.ReserveRequest) (*domain.ReserveResult, error) {
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	for attempt := 0; attempt < 2; attempt++ {
		now := s.clock.Now()
		updated, err := s.repo.IncrementIfWithinCap(ctx, tx, req.OrgID, req.EventYearID, req.Quantity, now)
		if err != nil {
			return nil, err
		}
		if updated {
			tracking, err := s.repo.Find(ctx, tx, req.OrgID, req.EventYearID)
			if err != nil {
				return nil, err
			}
			return &domain.ReserveResult{Tracked: req.Quantity, Tracking: tracking}, nil
		}

		existing, err := s.repo.Find(ctx, tx, req.OrgID, req.EventYearID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, &domain.QuotaExceededError{
				Current:   existing.QuantityPurchased,
				Requested: req.Quantity,
				Max:       existing.MaxAllowed,
			}
		}
		if req.Quantity > domain.MaxTentsPerOrganization {
			return nil, &domain.QuotaExceededError{
				Current:   0,
				Requested: req.Quantity,
				Max:       domain.MaxTentsPerOrganization,
			}
		}

		productID := req.TentProductID
		if productID == 0 {
			resolved, ok, err := s.productSvc.ResolveTentProduct(ctx, tx, req.EventYearID)
			if err != nil {
				return nil, err
			}
			if !ok {
				s.log.Warn("tent tracking skipped, no tent product for event year",
					zap.String("org_id", req.OrgID.String()),
					zap.String("event_year_id", req.EventYearID.String()),
				)
				return &domain.ReserveResult{Skipped: true}, nil
			}
			productID = resolved
		}

		tracking := &domain.Tracking{
			ID:                s.genID.Generate(),
			OrgID:             req.OrgID,
			EventYearID:       req.EventYearID,
			TentProductID:     productID,
			QuantityPurchased: req.Quantity,
			MaxAllowed:        domain.MaxTentsPerOrganization,
			RemainingAllowed:  domain.MaxTentsPerOrganization - req.Quantity,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		inserted, err := s.repo.InsertIfAbsent(ctx, tx, tracking)
		if err != nil {
			return nil, err
		}
		if inserted {
			return &domain.ReserveResult{Tracked: req.Quantity, Tracking: tracking}, nil
		}
	}

	return nil, domain.ErrContention
}

func (s *Service) GetTracking(ctx context.Context, scope orgcontext.Scope, eventYearID snowflake.ID) (*domain.Tracking, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectTent, authorization.ActionTentView); err != nil {
		return nil, err
	}
	if scope.OrgID == 0 {
		return nil, authorization.ErrInvalidOrganization
	}

	tracking, err := s.repo.Find(ctx, s.db, scope.OrgID, eventYearID)
	if err != nil {
		return nil, err
	}
	if tracking == nil {
		return &domain.Tracking{
			OrgID:            scope.OrgID,
			EventYearID:      eventYearID,
			MaxAllowed:       domain.MaxTentsPerOrganization,
			RemainingAllowed: domain.MaxTentsPerOrganization,
		}, nil
	}
	return tracking, nil
}
