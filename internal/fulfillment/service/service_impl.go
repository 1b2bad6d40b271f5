package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/oldski/sportsfestDashboard-sub002/internal/audit/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/events"
	"github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/observability/metrics"
	orderdomain "github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	productdomain "github.com/oldski/sportsfestDashboard-sub002/internal/product/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/revalidation"
	teamdomain "github.com/oldski/sportsfestDashboard-sub002/internal/team/domain"
	tentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/tent/domain"
	"github.com/oldski/sportsfestDashboard-sub002/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	outcomeFulfilled        = "fulfilled"
	outcomeAlreadyFulfilled = "already_fulfilled"
	outcomeSkipped          = "skipped"
	outcomeQuotaExceeded    = "quota_exceeded"
	outcomeFailed           = "failed"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	OrderRepo   orderdomain.Repository
	TeamSvc     teamdomain.Service
	TentSvc     tentdomain.Service
	Authz       authorization.Service
	AuditSvc    auditdomain.Service    `optional:"true"`
	Events      events.Publisher       `optional:"true"`
	Revalidator revalidation.Publisher `optional:"true"`
	Metrics     *metrics.Metrics       `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	orderRepo   orderdomain.Repository
	teamSvc     teamdomain.Service
	tentSvc     tentdomain.Service
	authz       authorization.Service
	auditSvc    auditdomain.Service
	events      events.Publisher
	revalidator revalidation.Publisher
	metrics     *metrics.Metrics
}

func NewService(p Params) domain.Service {
	svc := &Service{
		db:          p.DB,
		log:         p.Log.Named("fulfillment.service"),
		clock:       p.Clock,
		orderRepo:   p.OrderRepo,
		teamSvc:     p.TeamSvc,
		tentSvc:     p.TentSvc,
		authz:       p.Authz,
		auditSvc:    p.AuditSvc,
		events:      p.Events,
		revalidator: p.Revalidator,
		metrics:     p.Metrics,
	}
	if svc.events == nil {
		svc.events = events.Noop{}
	}
	if svc.revalidator == nil {
		svc.revalidator = revalidation.Noop{}
	}
	return svc
}

// tally collects what one fulfillment run produced.
type tally struct {
	teams        []string
	tentsTracked int
	tentsSkipped int
	noop         int
}

// Fulfill converts a paid order's items into teams and tent allocations.
// Everything happens in one transaction: a failing item leaves no trace.
func (s *Service) Fulfill(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID) (*domain.Result, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectFulfillment, authorization.ActionFulfillmentRun); err != nil {
		return nil, err
	}

	var (
		result *domain.Result
		order  *orderdomain.Order
		run    tally
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.FindForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil || !scope.CanAccessOrg(order.OrgID) {
			return orderdomain.ErrNotFound
		}

		if order.Fulfilled() {
			result = &domain.Result{
				Success:          true,
				Message:          fmt.Sprintf("Order %s is already fulfilled", order.OrderNumber),
				OrderID:          order.ID,
				AlreadyFulfilled: true,
			}
			return nil
		}
		if order.Status.Closed() {
			result = &domain.Result{
				Message: fmt.Sprintf("Order %s is %s and cannot be fulfilled", order.OrderNumber, order.Status),
				OrderID: order.ID,
			}
			return nil
		}

		paid, err := s.orderRepo.SumCompletedPayments(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if paid <= 0 {
			result = &domain.Result{
				Message: fmt.Sprintf("Nothing to fulfill yet: no payment received for order %s", order.OrderNumber),
				OrderID: order.ID,
			}
			return nil
		}

		items, err := s.orderRepo.ListItems(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			result = &domain.Result{
				Message: fmt.Sprintf("Order %s has no items to fulfill", order.OrderNumber),
				OrderID: order.ID,
			}
			return nil
		}

		for _, item := range items {
			if err := s.fulfillItem(ctx, tx, order, item, &run); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		marked, err := s.orderRepo.MarkFulfilled(ctx, tx, order.ID, now, summaryMetadata(order.Metadata, run, scope))
		if err != nil {
			return err
		}
		if !marked {
			return domain.ErrFulfillmentRace
		}

		result = &domain.Result{
			Success:      true,
			Message:      summaryMessage(order.OrderNumber, run),
			OrderID:      order.ID,
			TeamsCreated: run.teams,
			TentsTracked: run.tentsTracked,
		}
		return nil
	})
	if err != nil {
		return s.failure(ctx, scope, orderID, err)
	}

	if !result.Success {
		s.metrics.RecordFulfillment(ctx, outcomeSkipped)
		return result, nil
	}
	if result.AlreadyFulfilled {
		s.metrics.RecordFulfillment(ctx, outcomeAlreadyFulfilled)
		return result, nil
	}

	s.afterCommit(ctx, scope, order, run)
	return result, nil
}

// fulfillItem dispatches on the closed set of product types. Adding a
// product type without a case here fails fulfillment instead of skipping it.
func (s *Service) fulfillItem(ctx context.Context, tx *gorm.DB, order *orderdomain.Order, item orderdomain.OrderItem, run *tally) error {
	switch item.ProductType {
	case productdomain.ProductTypeTeamRegistration:
		teams, err := s.teamSvc.CreateTeams(ctx, tx, teamdomain.CreateTeamsRequest{
			OrgID:       order.OrgID,
			EventYearID: order.EventYearID,
			OrderID:     order.ID,
			Count:       item.Quantity,
		})
		if err != nil {
			return err
		}
		for _, team := range teams {
			run.teams = append(run.teams, team.Name)
		}
		return nil

	case productdomain.ProductTypeTentRental:
		reserved, err := s.tentSvc.Reserve(ctx, tx, tentdomain.ReserveRequest{
			OrgID:         order.OrgID,
			EventYearID:   order.EventYearID,
			TentProductID: item.ProductID,
			Quantity:      item.Quantity,
		})
		if err != nil {
			return err
		}
		if reserved.Skipped {
			run.tentsSkipped += item.Quantity
			return nil
		}
		run.tentsTracked += reserved.Tracked
		return nil

	case productdomain.ProductTypeMerchandise,
		productdomain.ProductTypeService,
		productdomain.ProductTypeEquipment,
		productdomain.ProductTypeOther:
		run.noop++
		return nil

	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownProductType, item.ProductType)
	}
}

func (s *Service) failure(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID, err error) (*domain.Result, error) {
	log := s.log.With(
		zap.String("order_id", orderID.String()),
		zap.String("org_id", scope.OrgID.String()),
	)

	var quota *tentdomain.QuotaExceededError
	switch {
	case errors.As(err, &quota):
		log.Warn("fulfillment refused by tent quota",
			zap.Int("current", quota.Current),
			zap.Int("requested", quota.Requested),
		)
		s.metrics.RecordFulfillment(ctx, outcomeQuotaExceeded)
		return &domain.Result{
			Message: "Cannot fulfill tent order: " + quota.Error(),
			OrderID: orderID,
		}, nil

	case errors.Is(err, domain.ErrFulfillmentRace):
		s.metrics.RecordFulfillment(ctx, outcomeAlreadyFulfilled)
		return &domain.Result{
			Success:          true,
			Message:          "Order is already fulfilled",
			OrderID:          orderID,
			AlreadyFulfilled: true,
		}, nil

	case errors.Is(err, orderdomain.ErrNotFound):
		return nil, err

	case db.IsConcurrencyErr(err):
		log.Warn("fulfillment lost a concurrent update", zap.Error(err))
		s.metrics.RecordFulfillment(ctx, outcomeFailed)
		return nil, fmt.Errorf("%w: %v", domain.ErrConcurrentUpdate, err)

	default:
		log.Error("fulfillment failed", zap.Error(err))
		s.metrics.RecordFulfillment(ctx, outcomeFailed)
		return nil, err
	}
}

func (s *Service) afterCommit(ctx context.Context, scope orgcontext.Scope, order *orderdomain.Order, run tally) {
	s.metrics.RecordFulfillment(ctx, outcomeFulfilled)
	s.metrics.RecordTeamsCreated(ctx, len(run.teams))
	s.metrics.RecordTentsReserved(ctx, run.tentsTracked)

	data := map[string]any{
		"order_id":      order.ID.String(),
		"order_number":  order.OrderNumber,
		"event_year_id": order.EventYearID.String(),
		"teams_created": run.teams,
		"tents_tracked": run.tentsTracked,
	}
	if err := s.events.Publish(ctx, events.New(events.TypeOrderFulfilled, order.OrgID, s.clock.Now(), data)); err != nil {
		s.log.Warn("order fulfilled event not published", zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, scope, auditdomain.ActionOrderFulfilled, "order", order.ID.String(), data)
	}

	s.revalidator.Revalidate(ctx, order.OrgID, revalidation.TeamsPath, revalidation.OrdersPath)

	s.log.Info("order fulfilled",
		zap.String("order_id", order.ID.String()),
		zap.String("org_id", order.OrgID.String()),
		zap.Int("teams_created", len(run.teams)),
		zap.Int("tents_tracked", run.tentsTracked),
	)
}

func summaryMessage(orderNumber string, run tally) string {
	parts := make([]string, 0, 3)
	if len(run.teams) > 0 {
		parts = append(parts, fmt.Sprintf("created %d team(s): %s", len(run.teams), strings.Join(run.teams, ", ")))
	}
	if run.tentsTracked > 0 {
		parts = append(parts, fmt.Sprintf("tracked %d tent(s)", run.tentsTracked))
	}
	if run.tentsSkipped > 0 {
		parts = append(parts, fmt.Sprintf("%d tent(s) not tracked, no tent product for event year", run.tentsSkipped))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Order %s fulfilled", orderNumber)
	}
	return fmt.Sprintf("Order %s fulfilled: %s", orderNumber, strings.Join(parts, "; "))
}

func summaryMetadata(existing datatypes.JSONMap, run tally, scope orgcontext.Scope) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range existing {
		out[k] = v
	}
	teams := run.teams
	if teams == nil {
		teams = []string{}
	}
	out["fulfillment"] = map[string]any{
		"teams_created": teams,
		"tents_tracked": run.tentsTracked,
		"tents_skipped": run.tentsSkipped,
		"noop_items":    run.noop,
		"fulfilled_by":  scope.ActorID,
	}
	return out
}
