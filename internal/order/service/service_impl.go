package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/oldski/sportsfestDashboard-sub002/internal/audit/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	eventyeardomain "github.com/oldski/sportsfestDashboard-sub002/internal/eventyear/domain"
	obslogger "github.com/oldski/sportsfestDashboard-sub002/internal/observability/logger"
	"github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	productdomain "github.com/oldski/sportsfestDashboard-sub002/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	EventYearRepo eventyeardomain.Repository
	ProductSvc    productdomain.Service
	Authz         authorization.Service
	AuditSvc      auditdomain.Service `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	eventYearRepo eventyeardomain.Repository
	productSvc    productdomain.Service
	authz         authorization.Service
	auditSvc      auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("order.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		eventYearRepo: p.EventYearRepo,
		productSvc:    p.ProductSvc,
		authz:         p.Authz,
		auditSvc:      p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, scope orgcontext.Scope, req domain.CreateOrderRequest) (*domain.OrderDetail, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectOrder, authorization.ActionOrderCreate); err != nil {
		return nil, err
	}
	if scope.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyItems
	}

	eventYear, err := s.eventYearRepo.FindByID(ctx, s.db, req.EventYearID)
	if err != nil {
		return nil, err
	}
	if eventYear == nil {
		return nil, domain.ErrInvalidEventYear
	}

	ids := make([]snowflake.ID, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		ids = append(ids, item.ProductID)
	}
	products, err := s.productSvc.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	orderID := s.genID.Generate()
	items := make([]domain.OrderItem, 0, len(req.Items))
	var total int64
	for _, line := range req.Items {
		product := products[line.ProductID]
		if product.EventYearID != eventYear.ID || !product.Active {
			return nil, domain.ErrProductMismatch
		}
		if product.MaxPerOrg != nil && line.Quantity > *product.MaxPerOrg {
			return nil, domain.ErrQuantityLimit
		}
		lineTotal := product.PriceAmount * int64(line.Quantity)
		total += lineTotal
		items = append(items, domain.OrderItem{
			ID:          s.genID.Generate(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductType: product.Type,
			Quantity:    line.Quantity,
			UnitPrice:   product.PriceAmount,
			TotalPrice:  lineTotal,
			CreatedAt:   now,
		})
	}

	order := domain.Order{
		ID:                orderID,
		OrgID:             scope.OrgID,
		EventYearID:       eventYear.ID,
		OrderNumber:       fmt.Sprintf("SF-%d-%s", eventYear.Year, strings.ToUpper(orderID.Base36())),
		TotalAmount:       total,
		Status:            domain.OrderStatusPending,
		FulfillmentStatus: domain.FulfillmentStatusUnfulfilled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &order); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	}); err != nil {
		obslogger.WithScope(s.log, scope).Error("failed to create order", zap.Error(err))
		return nil, err
	}

	s.audit(ctx, scope, auditdomain.ActionOrderCreated, order.ID, map[string]any{
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
		"items":        len(items),
	})

	return &domain.OrderDetail{
		Order:            order,
		Items:            items,
		Payments:         []domain.Payment{},
		BalanceRemaining: order.TotalAmount,
	}, nil
}

func (s *Service) Get(ctx context.Context, scope orgcontext.Scope, id snowflake.ID) (*domain.OrderDetail, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectOrder, authorization.ActionOrderView); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}

	paid := domain.SumCompleted(payments)
	return &domain.OrderDetail{
		Order:            *order,
		Items:            items,
		Payments:         payments,
		TotalPaid:        paid,
		BalanceRemaining: order.TotalAmount - paid,
	}, nil
}

func (s *Service) List(ctx context.Context, scope orgcontext.Scope, req domain.ListOrdersRequest) ([]domain.Order, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectOrder, authorization.ActionOrderView); err != nil {
		return nil, err
	}
	if scope.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	filter := domain.ListFilter{OrgID: scope.OrgID, EventYearID: req.EventYearID}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Cancel(ctx context.Context, scope orgcontext.Scope, id snowflake.ID) (*domain.CancelResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectOrder, authorization.ActionOrderCancel); err != nil {
		return nil, err
	}

	var result *domain.CancelResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil || !scope.CanAccessOrg(order.OrgID) {
			return domain.ErrNotFound
		}
		if order.Fulfilled() {
			result = &domain.CancelResult{Message: "Order has already been fulfilled and cannot be cancelled", Order: order}
			return nil
		}
		if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
			result = &domain.CancelResult{Message: fmt.Sprintf("Order cannot be cancelled from status %s", order.Status), Order: order}
			return nil
		}
		if order.Status == domain.OrderStatusCancelled {
			result = &domain.CancelResult{Success: true, Message: "Order is already cancelled", Order: order}
			return nil
		}

		now := s.clock.Now()
		if err := s.repo.UpdateStatus(ctx, tx, order.ID, domain.OrderStatusCancelled, now); err != nil {
			return err
		}
		order.Status = domain.OrderStatusCancelled
		order.UpdatedAt = now
		result = &domain.CancelResult{Success: true, Message: "Order cancelled", Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		s.audit(ctx, scope, auditdomain.ActionOrderCancelled, id, nil)
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, scope orgcontext.Scope, id snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil || !scope.CanAccessOrg(order.OrgID) {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) audit(ctx context.Context, scope orgcontext.Scope, action string, orderID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, scope, action, "order", orderID.String(), metadata)
}
