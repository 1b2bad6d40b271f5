package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/oldski/sportsfestDashboard-sub002/internal/audit/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/events"
	fulfillmentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment/domain"
	obsmetrics "github.com/oldski/sportsfestDashboard-sub002/internal/observability/metrics"
	orderdomain "github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	paymentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Repo           paymentdomain.Repository
	OrderRepo      orderdomain.Repository
	FulfillmentSvc fulfillmentdomain.Service
	Authz          authorization.Service
	AuditSvc       auditdomain.Service `optional:"true"`
	Events         events.Publisher    `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           paymentdomain.Repository
	orderRepo      orderdomain.Repository
	fulfillmentSvc fulfillmentdomain.Service
	authz          authorization.Service
	auditSvc       auditdomain.Service
	events         events.Publisher
	obsMetrics     *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	svc := &Service{
		db:             p.DB,
		log:            p.Log.Named("payment.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		orderRepo:      p.OrderRepo,
		fulfillmentSvc: p.FulfillmentSvc,
		authz:          p.Authz,
		auditSvc:       p.AuditSvc,
		events:         p.Events,
		obsMetrics:     p.ObsMetrics,
	}
	if svc.events == nil {
		svc.events = events.Noop{}
	}
	return svc
}

func (s *Service) RecordPayment(ctx context.Context, scope orgcontext.Scope, req paymentdomain.RecordPaymentRequest) (*paymentdomain.RecordPaymentResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectPayment, authorization.ActionPaymentRecord); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, paymentdomain.ErrInvalidAmount
	}
	status := orderdomain.PaymentStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status == "" {
		status = orderdomain.PaymentStatusCompleted
	}
	if !status.Valid() {
		return nil, paymentdomain.ErrInvalidStatus
	}
	ref := strings.TrimSpace(req.ProviderRef)

	var result *paymentdomain.RecordPaymentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindForUpdate(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		if order == nil || !scope.CanAccessOrg(order.OrgID) {
			return orderdomain.ErrNotFound
		}
		if order.Status.Closed() {
			result = &paymentdomain.RecordPaymentResult{
				Message: fmt.Sprintf("Order %s is %s and no longer accepts payments", order.OrderNumber, order.Status),
			}
			return nil
		}

		if ref != "" {
			existing, err := s.orderRepo.FindPaymentByRef(ctx, tx, order.ID, ref)
			if err != nil {
				return err
			}
			if existing != nil {
				result = duplicatePayment(existing)
				return nil
			}
		}

		if status == orderdomain.PaymentStatusCompleted {
			paid, err := s.orderRepo.SumCompletedPayments(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			if paid+req.Amount > order.TotalAmount {
				return fmt.Errorf("%w: balance remaining %s, payment %s",
					paymentdomain.ErrOverpayment, formatAmount(order.TotalAmount-paid), formatAmount(req.Amount))
			}
		}

		payment := &orderdomain.Payment{
			ID:        s.genID.Generate(),
			OrderID:   order.ID,
			OrgID:     order.OrgID,
			Amount:    req.Amount,
			Status:    status,
			CreatedAt: s.clock.Now(),
		}
		if ref != "" {
			payment.ProviderRef = &ref
		}
		inserted, err := s.orderRepo.InsertPayment(ctx, tx, payment)
		if err != nil {
			return err
		}
		if !inserted {
			existing, err := s.orderRepo.FindPaymentByRef(ctx, tx, order.ID, ref)
			if err != nil {
				return err
			}
			result = duplicatePayment(existing)
			return nil
		}

		result = &paymentdomain.RecordPaymentResult{
			Success: true,
			Message: fmt.Sprintf("Recorded %s payment of %s", status, formatAmount(req.Amount)),
			Payment: payment,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, orderdomain.ErrNotFound) && !errors.Is(err, paymentdomain.ErrOverpayment) {
			s.log.Error("failed to record payment", zap.String("order_id", req.OrderID.String()), zap.Error(err))
		}
		return nil, err
	}
	if !result.Success || result.Duplicate {
		return result, nil
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, scope, auditdomain.ActionPaymentRecorded, "order", req.OrderID.String(), map[string]any{
			"payment_id": result.Payment.ID.String(),
			"amount":     req.Amount,
			"status":     string(status),
		})
	}

	if status == orderdomain.PaymentStatusCompleted {
		reconciliation, err := s.reconcile(ctx, scope, req.OrderID)
		if err != nil {
			return nil, err
		}
		result.Reconciliation = reconciliation
	}
	return result, nil
}

func (s *Service) Reconcile(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID) (*paymentdomain.ReconcileResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectPayment, authorization.ActionPaymentReconcile); err != nil {
		return nil, err
	}
	return s.reconcile(ctx, scope, orderID)
}

// HandleNotification reconciles an order once per upstream event.
func (s *Service) HandleNotification(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID, n paymentdomain.Notification) (*paymentdomain.ReconcileResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectPayment, authorization.ActionPaymentReconcile); err != nil {
		return nil, err
	}
	provider := strings.ToLower(strings.TrimSpace(n.Provider))
	if provider == "" {
		return nil, paymentdomain.ErrInvalidProvider
	}
	eventID := strings.TrimSpace(n.ProviderEventID)
	if eventID == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}
	payload := n.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	if !json.Valid(payload) {
		return nil, paymentdomain.ErrInvalidPayload
	}

	order, err := s.orderRepo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || !scope.CanAccessOrg(order.OrgID) {
		return nil, orderdomain.ErrNotFound
	}

	received := paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		OrgID:           order.OrgID,
		OrderID:         order.ID,
		Provider:        provider,
		ProviderEventID: eventID,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      s.clock.Now(),
	}
	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return nil, err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, provider, eventID)
		if err != nil {
			return nil, err
		}
		if stored == nil || stored.OrderID != order.ID {
			return nil, paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			return &paymentdomain.ReconcileResult{
				Success: true,
				Message: "Payment notification already processed",
				OrderID: order.ID,
				Status:  order.Status,
			}, nil
		}
	}

	result, err := s.reconcile(ctx, scope, order.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkProcessed(ctx, s.db, stored.ID, s.clock.Now()); err != nil {
		return nil, err
	}
	return result, nil
}

// reconcile derives the order status from completed payments. Fulfillment
// runs first so teams exist as soon as any money arrives. A fulfillment
// failure never holds back the status update.
func (s *Service) reconcile(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID) (*paymentdomain.ReconcileResult, error) {
	order, err := s.orderRepo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || !scope.CanAccessOrg(order.OrgID) {
		return nil, orderdomain.ErrNotFound
	}
	if order.Status.Closed() {
		return &paymentdomain.ReconcileResult{
			Message: fmt.Sprintf("Order %s is %s; payments are not reconciled", order.OrderNumber, order.Status),
			OrderID: order.ID,
			Status:  order.Status,
		}, nil
	}

	paid, err := s.orderRepo.SumCompletedPayments(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}

	var fulfillment *fulfillmentdomain.Result
	if paid > 0 && !order.Fulfilled() {
		fulfillment, err = s.fulfillmentSvc.Fulfill(ctx, orgcontext.System(order.OrgID), order.ID)
		if err != nil {
			s.log.Error("fulfillment failed during reconciliation",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			fulfillment = &fulfillmentdomain.Result{
				Message: "Fulfillment failed and will be retried on the next reconciliation",
				OrderID: order.ID,
			}
		}
	}

	var status orderdomain.OrderStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.orderRepo.FindForUpdate(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return orderdomain.ErrNotFound
		}
		paid, err = s.orderRepo.SumCompletedPayments(ctx, tx, locked.ID)
		if err != nil {
			return err
		}

		status = nextStatus(locked.Status, paid, locked.TotalAmount)
		if status == locked.Status {
			return nil
		}
		return s.orderRepo.UpdateStatus(ctx, tx, locked.ID, status, s.clock.Now())
	})
	if err != nil {
		s.log.Error("failed to update order status", zap.String("order_id", order.ID.String()), zap.Error(err))
		return nil, err
	}

	balance := order.TotalAmount - paid
	if balance < 0 {
		balance = 0
	}
	result := &paymentdomain.ReconcileResult{
		Success:          true,
		Message:          reconcileMessage(order.OrderNumber, status, balance),
		OrderID:          order.ID,
		Status:           status,
		TotalPaid:        paid,
		BalanceRemaining: balance,
		Fulfillment:      fulfillment,
	}

	s.obsMetrics.RecordReconciliation(ctx, string(status))
	if status != order.Status {
		data := map[string]any{
			"order_id":          order.ID.String(),
			"previous_status":   string(order.Status),
			"status":            string(status),
			"total_paid":        paid,
			"balance_remaining": balance,
		}
		if s.auditSvc != nil {
			_ = s.auditSvc.AuditLog(ctx, scope, auditdomain.ActionOrderReconciled, "order", order.ID.String(), data)
		}
		if err := s.events.Publish(ctx, events.New(events.TypeOrderReconciled, order.OrgID, s.clock.Now(), data)); err != nil {
			s.log.Warn("order reconciled event not published", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}
	return result, nil
}

// nextStatus never moves backwards. With nothing paid the order stays where it is.
func nextStatus(current orderdomain.OrderStatus, paid, total int64) orderdomain.OrderStatus {
	var next orderdomain.OrderStatus
	switch {
	case paid <= 0:
		return current
	case paid >= total:
		next = orderdomain.OrderStatusFullyPaid
	default:
		next = orderdomain.OrderStatusPartialPayment
	}
	if !current.CanTransitionTo(next) {
		return current
	}
	return next
}

func reconcileMessage(orderNumber string, status orderdomain.OrderStatus, balance int64) string {
	switch status {
	case orderdomain.OrderStatusFullyPaid:
		return fmt.Sprintf("Order %s is fully paid", orderNumber)
	case orderdomain.OrderStatusPartialPayment:
		return fmt.Sprintf("Payment received for order %s. Balance remaining: %s", orderNumber, formatAmount(balance))
	default:
		return fmt.Sprintf("No completed payments for order %s. Balance remaining: %s", orderNumber, formatAmount(balance))
	}
}

func duplicatePayment(existing *orderdomain.Payment) *paymentdomain.RecordPaymentResult {
	return &paymentdomain.RecordPaymentResult{
		Success:   true,
		Message:   "Payment already recorded",
		Duplicate: true,
		Payment:   existing,
	}
}

// formatAmount renders minor units as dollars.
func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
