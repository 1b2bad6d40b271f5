package service_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	fulfillmentservice "github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment/service"
	"github.com/oldski/sportsfestDashboard-sub002/internal/observability/metrics"
	orderdomain "github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	orderrepo "github.com/oldski/sportsfestDashboard-sub002/internal/order/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	paymentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/payment/domain"
	paymentrepo "github.com/oldski/sportsfestDashboard-sub002/internal/payment/repository"
	paymentservice "github.com/oldski/sportsfestDashboard-sub002/internal/payment/service"
	productrepo "github.com/oldski/sportsfestDashboard-sub002/internal/product/repository"
	productservice "github.com/oldski/sportsfestDashboard-sub002/internal/product/service"
	teamrepo "github.com/oldski/sportsfestDashboard-sub002/internal/team/repository"
	teamservice "github.com/oldski/sportsfestDashboard-sub002/internal/team/service"
	tentrepo "github.com/oldski/sportsfestDashboard-sub002/internal/tent/repository"
	tentservice "github.com/oldski/sportsfestDashboard-sub002/internal/tent/service"
	"github.com/oldski/sportsfestDashboard-sub002/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	orgID       = snowflake.ID(100)
	eventYearID = snowflake.ID(2026)
	teamProduct = snowflake.ID(800)
	tentProduct = snowflake.ID(900)
	orderID     = snowflake.ID(5000)
	orderTotal  = int64(325000)
)

func setup(t *testing.T) (*gorm.DB, paymentdomain.Service) {
	t.Helper()
	db := testutil.OpenDB(t)
	log := zaptest.NewLogger(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(testutil.Epoch)
	authz := testutil.Authorizer(t)

	teams := teamservice.NewService(teamservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: teamrepo.Provide(), Authz: authz,
	})
	tents := tentservice.NewService(tentservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: tentrepo.Provide(), Authz: authz,
		ProductSvc: productservice.New(productservice.Params{DB: db, Log: log, Repo: productrepo.Provide()}),
	})
	fulfillment := fulfillmentservice.NewService(fulfillmentservice.Params{
		DB:        db,
		Log:       log,
		Clock:     clk,
		OrderRepo: orderrepo.Provide(),
		TeamSvc:   teams,
		TentSvc:   tents,
		Authz:     authz,
	})

	svc := paymentservice.NewService(paymentservice.Params{
		DB:             db,
		Log:            log,
		GenID:          node,
		Clock:          clk,
		Repo:           paymentrepo.Provide(),
		OrderRepo:      orderrepo.Provide(),
		FulfillmentSvc: fulfillment,
		Authz:          authz,
		ObsMetrics:     metrics.NewNoop(),
	})
	return db, svc
}

// seedOrder places an order for two teams and one tent.
func seedOrder(t *testing.T, db *gorm.DB, status string) {
	t.Helper()
	testutil.SeedOrder(t, db, orderID, orgID, eventYearID, "SF-2026-B7", orderTotal, status)
	testutil.SeedOrderItem(t, db, 1, orderID, teamProduct, "team_registration", 2, 150000)
	testutil.SeedOrderItem(t, db, 2, orderID, tentProduct, "tent_rental", 1, 25000)
}

func system() orgcontext.Scope {
	return testutil.SystemScope(int64(orgID))
}

func TestRecordDepositFulfillsOrder(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")

	result, err := svc.RecordPayment(ctx, system(), paymentdomain.RecordPaymentRequest{
		OrderID: orderID, Amount: 100000, ProviderRef: "pi_1",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Reconciliation)

	rec := result.Reconciliation
	assert.Equal(t, orderdomain.OrderStatusPartialPayment, rec.Status)
	assert.Equal(t, int64(100000), rec.TotalPaid)
	assert.Equal(t, int64(225000), rec.BalanceRemaining)
	assert.Equal(t, "Payment received for order SF-2026-B7. Balance remaining: $2250.00", rec.Message)
	require.NotNil(t, rec.Fulfillment)
	assert.True(t, rec.Fulfillment.Success)
	assert.Equal(t, []string{"Team 1", "Team 2"}, rec.Fulfillment.TeamsCreated)

	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM company_teams WHERE org_id = ?`, 2, orgID)
	testutil.AssertCount(t, db, `SELECT quantity_purchased FROM tent_purchase_tracking WHERE org_id = ?`, 1, orgID)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM orders WHERE status = 'partial_payment' AND fulfillment_status = 'fulfilled'`, 1)
}

func TestReconcileTwiceDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")
	testutil.SeedPayment(t, db, 1, orderID, orgID, orderTotal, "completed")

	first, err := svc.Reconcile(ctx, system(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.OrderStatusFullyPaid, first.Status)
	assert.Equal(t, "Order SF-2026-B7 is fully paid", first.Message)
	require.NotNil(t, first.Fulfillment)

	second, err := svc.Reconcile(ctx, system(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.OrderStatusFullyPaid, second.Status)
	assert.Nil(t, second.Fulfillment)

	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM company_teams WHERE org_id = ?`, 2, orgID)
	testutil.AssertCount(t, db, `SELECT quantity_purchased FROM tent_purchase_tracking WHERE org_id = ?`, 1, orgID)
}

func TestQuotaFailureDoesNotBlockStatus(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")
	testutil.SeedTentTracking(t, db, 1, orgID, eventYearID, tentProduct, 2)
	testutil.SeedPayment(t, db, 1, orderID, orgID, orderTotal, "completed")

	result, err := svc.Reconcile(ctx, system(), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, orderdomain.OrderStatusFullyPaid, result.Status)
	require.NotNil(t, result.Fulfillment)
	assert.False(t, result.Fulfillment.Success)
	assert.Equal(t, "Cannot fulfill tent order: Organization would exceed 2-tent limit (current: 2, requested: 1)", result.Fulfillment.Message)

	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM company_teams`, 0)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM orders WHERE status = 'fully_paid' AND fulfillment_status = 'unfulfilled'`, 1)
}

func TestRecordPaymentRejectsOverpayment(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "partial_payment")
	testutil.SeedPayment(t, db, 1, orderID, orgID, 300000, "completed")

	_, err := svc.RecordPayment(ctx, system(), paymentdomain.RecordPaymentRequest{OrderID: orderID, Amount: 30000})
	require.ErrorIs(t, err, paymentdomain.ErrOverpayment)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM payments`, 1)
}

func TestRecordPaymentIsIdempotentByProviderRef(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")

	req := paymentdomain.RecordPaymentRequest{OrderID: orderID, Amount: 50000, ProviderRef: "pi_dup"}
	_, err := svc.RecordPayment(ctx, system(), req)
	require.NoError(t, err)

	again, err := svc.RecordPayment(ctx, system(), req)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Nil(t, again.Reconciliation)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM payments`, 1)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM company_teams`, 2)
}

func TestRecordPaymentsWithAndWithoutProviderRef(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")

	for _, req := range []paymentdomain.RecordPaymentRequest{
		{OrderID: orderID, Amount: 50000, ProviderRef: "pi_1"},
		{OrderID: orderID, Amount: 20000},
		{OrderID: orderID, Amount: 30000},
	} {
		result, err := svc.RecordPayment(ctx, system(), req)
		require.NoError(t, err)
		require.True(t, result.Success)
		assert.False(t, result.Duplicate)
	}

	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM payments WHERE provider_ref IS NULL`, 2)
	testutil.AssertCount(t, db, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = ?`, 100000, orderID)
}

func TestPendingPaymentDoesNotReconcile(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")

	result, err := svc.RecordPayment(ctx, system(), paymentdomain.RecordPaymentRequest{
		OrderID: orderID, Amount: 50000, Status: "pending",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Nil(t, result.Reconciliation)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM orders WHERE status = 'pending'`, 1)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM company_teams`, 0)
}

func TestReconcileNeverDowngradesFullyPaid(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "fully_paid")
	testutil.SeedPayment(t, db, 1, orderID, orgID, 100000, "completed")
	testutil.SeedPayment(t, db, 2, orderID, orgID, 225000, "failed")

	result, err := svc.Reconcile(ctx, system(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.OrderStatusFullyPaid, result.Status)
	assert.Equal(t, int64(225000), result.BalanceRemaining)
}

func TestReconcileClosedOrder(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "cancelled")

	result, err := svc.Reconcile(ctx, system(), orderID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, orderdomain.OrderStatusCancelled, result.Status)

	recorded, err := svc.RecordPayment(ctx, system(), paymentdomain.RecordPaymentRequest{OrderID: orderID, Amount: 100})
	require.NoError(t, err)
	assert.False(t, recorded.Success)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM payments`, 0)
}

func TestReconcileUnknownOrder(t *testing.T) {
	_, svc := setup(t)
	_, err := svc.Reconcile(context.Background(), system(), 424242)
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)
}

func TestHandleNotificationProcessesOnce(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")
	testutil.SeedPayment(t, db, 1, orderID, orgID, 100000, "completed")

	n := paymentdomain.Notification{Provider: "Stripe", ProviderEventID: "evt_1", Payload: []byte(`{"type":"payment_intent.succeeded"}`)}
	first, err := svc.HandleNotification(ctx, system(), orderID, n)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.OrderStatusPartialPayment, first.Status)

	second, err := svc.HandleNotification(ctx, system(), orderID, n)
	require.NoError(t, err)
	assert.Equal(t, "Payment notification already processed", second.Message)

	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM payment_events WHERE provider = 'stripe' AND processed_at IS NOT NULL`, 1)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM company_teams`, 2)
}

func TestHandleNotificationRejectsInvalidPayload(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")

	_, err := svc.HandleNotification(ctx, system(), orderID, paymentdomain.Notification{Provider: "stripe", ProviderEventID: "evt_2", Payload: []byte("{")})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidPayload)

	_, err = svc.HandleNotification(ctx, system(), orderID, paymentdomain.Notification{ProviderEventID: "evt_2"})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidProvider)
}

func TestMembersCannotRecordPayments(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	seedOrder(t, db, "pending")

	_, err := svc.RecordPayment(ctx, testutil.MemberScope(int64(orgID)), paymentdomain.RecordPaymentRequest{OrderID: orderID, Amount: 100})
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}
