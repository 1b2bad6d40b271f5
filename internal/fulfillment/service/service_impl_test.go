package service_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/events"
	"github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment/service"
	"github.com/oldski/sportsfestDashboard-sub002/internal/observability/metrics"
	orderdomain "github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	orderrepo "github.com/oldski/sportsfestDashboard-sub002/internal/order/repository"
	productrepo "github.com/oldski/sportsfestDashboard-sub002/internal/product/repository"
	productservice "github.com/oldski/sportsfestDashboard-sub002/internal/product/service"
	"github.com/oldski/sportsfestDashboard-sub002/internal/revalidation"
	teamrepo "github.com/oldski/sportsfestDashboard-sub002/internal/team/repository"
	teamservice "github.com/oldski/sportsfestDashboard-sub002/internal/team/service"
	tentrepo "github.com/oldski/sportsfestDashboard-sub002/internal/tent/repository"
	tentservice "github.com/oldski/sportsfestDashboard-sub002/internal/tent/service"
	"github.com/oldski/sportsfestDashboard-sub002/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	orgID        = snowflake.ID(100)
	otherOrgID   = snowflake.ID(200)
	eventYearID  = snowflake.ID(2026)
	teamProduct  = snowflake.ID(800)
	tentProduct  = snowflake.ID(900)
	shirtProduct = snowflake.ID(950)
	orderID      = snowflake.ID(5000)
)

type fixture struct {
	db          *gorm.DB
	svc         domain.Service
	events      *testutil.MockPublisher
	revalidated *testutil.Revalidations
}

func newFixture(t *testing.T) *fixture {
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

	f := &fixture{db: db, events: &testutil.MockPublisher{}, revalidated: &testutil.Revalidations{}}
	f.svc = service.NewService(service.Params{
		DB:          db,
		Log:         log,
		Clock:       clk,
		OrderRepo:   orderrepo.Provide(),
		TeamSvc:     teams,
		TentSvc:     tents,
		Authz:       authz,
		Events:      f.events,
		Revalidator: f.revalidated,
		Metrics:     metrics.NewNoop(),
	})
	return f
}

// seedPaidOrder creates an order with a deposit already recorded.
func (f *fixture) seedPaidOrder(t *testing.T, teamsQty, tentsQty int) {
	t.Helper()
	testutil.SeedOrder(t, f.db, orderID, orgID, eventYearID, "SF-2026-A1", 500000, "partial_payment")
	if teamsQty > 0 {
		testutil.SeedOrderItem(t, f.db, 1, orderID, teamProduct, "team_registration", teamsQty, 150000)
	}
	if tentsQty > 0 {
		testutil.SeedOrderItem(t, f.db, 2, orderID, tentProduct, "tent_rental", tentsQty, 25000)
	}
	testutil.SeedPayment(t, f.db, 1, orderID, orgID, 100000, "completed")
}

func TestFulfillCreatesTeamsAndTracksTent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPaidOrder(t, 2, 1)
	f.events.On("Publish", mock.Anything, testutil.EventOfType(events.TypeOrderFulfilled)).Return(nil).Once()

	result, err := f.svc.Fulfill(ctx, testutil.SystemScope(int64(orgID)), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"Team 1", "Team 2"}, result.TeamsCreated)
	assert.Equal(t, 1, result.TentsTracked)
	assert.Equal(t, "Order SF-2026-A1 fulfilled: created 2 team(s): Team 1, Team 2; tracked 1 tent(s)", result.Message)

	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM company_teams WHERE org_id = ? AND order_id = ?`, 2, orgID, orderID)
	testutil.AssertCount(t, f.db, `SELECT quantity_purchased FROM tent_purchase_tracking WHERE org_id = ?`, 1, orgID)
	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM orders WHERE id = ? AND fulfillment_status = 'fulfilled'`, 1, orderID)
	f.events.AssertExpectations(t)
	assert.Equal(t, []string{revalidation.TeamsPath, revalidation.OrdersPath}, f.revalidated.Paths(orgID))
}

func TestFulfillIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPaidOrder(t, 2, 1)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	scope := testutil.SystemScope(int64(orgID))
	_, err := f.svc.Fulfill(ctx, scope, orderID)
	require.NoError(t, err)

	again, err := f.svc.Fulfill(ctx, scope, orderID)
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.True(t, again.AlreadyFulfilled)
	assert.Empty(t, again.TeamsCreated)

	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM company_teams WHERE org_id = ?`, 2, orgID)
	testutil.AssertCount(t, f.db, `SELECT quantity_purchased FROM tent_purchase_tracking WHERE org_id = ?`, 1, orgID)
	f.events.AssertNumberOfCalls(t, "Publish", 1)
}

func TestFulfillQuotaFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPaidOrder(t, 1, 2)
	testutil.SeedTentTracking(t, f.db, 77, orgID, eventYearID, tentProduct, 1)

	result, err := f.svc.Fulfill(ctx, testutil.SystemScope(int64(orgID)), orderID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Cannot fulfill tent order: Organization would exceed 2-tent limit (current: 1, requested: 2)", result.Message)

	testutil.AssertCount(t, f.db, `SELECT quantity_purchased FROM tent_purchase_tracking WHERE org_id = ?`, 1, orgID)
	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM company_teams`, 0)
	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM orders WHERE id = ? AND fulfillment_status = 'unfulfilled'`, 1, orderID)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestFulfillWaitsForPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.SeedOrder(t, f.db, orderID, orgID, eventYearID, "SF-2026-A1", 150000, "pending")
	testutil.SeedOrderItem(t, f.db, 1, orderID, teamProduct, "team_registration", 1, 150000)
	testutil.SeedPayment(t, f.db, 1, orderID, orgID, 150000, "pending")

	result, err := f.svc.Fulfill(ctx, testutil.SystemScope(int64(orgID)), orderID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Nothing to fulfill yet")
	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM company_teams`, 0)
}

func TestFulfillWithoutItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.SeedOrder(t, f.db, orderID, orgID, eventYearID, "SF-2026-A1", 1000, "fully_paid")
	testutil.SeedPayment(t, f.db, 1, orderID, orgID, 1000, "completed")

	result, err := f.svc.Fulfill(ctx, testutil.SystemScope(int64(orgID)), orderID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Order SF-2026-A1 has no items to fulfill", result.Message)
}

func TestFulfillNonOperationalItemsOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.SeedOrder(t, f.db, orderID, orgID, eventYearID, "SF-2026-A1", 4000, "fully_paid")
	testutil.SeedOrderItem(t, f.db, 1, orderID, shirtProduct, "merchandise", 2, 2000)
	testutil.SeedPayment(t, f.db, 1, orderID, orgID, 4000, "completed")
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.Fulfill(ctx, testutil.SystemScope(int64(orgID)), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Order SF-2026-A1 fulfilled", result.Message)
	assert.Nil(t, result.TeamsCreated)
	assert.Zero(t, result.TentsTracked)
}

func TestFulfillRejectsUnknownProductType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPaidOrder(t, 1, 0)
	testutil.SeedOrderItem(t, f.db, 3, orderID, shirtProduct, "raffle_ticket", 1, 500)

	_, err := f.svc.Fulfill(ctx, testutil.SystemScope(int64(orgID)), orderID)
	require.ErrorIs(t, err, domain.ErrUnknownProductType)
	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM company_teams`, 0)
	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM orders WHERE fulfillment_status = 'fulfilled'`, 0)
}

func TestFulfillHidesOtherOrganizations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPaidOrder(t, 1, 0)

	admin := testutil.AdminScope(int64(otherOrgID))
	_, err := f.svc.Fulfill(ctx, admin, orderID)
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)

	_, err = f.svc.Fulfill(ctx, testutil.SystemScope(int64(orgID)), 999)
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)
}

func TestFulfillRequiresPermission(t *testing.T) {
	f := newFixture(t)
	f.seedPaidOrder(t, 1, 0)

	_, err := f.svc.Fulfill(context.Background(), testutil.MemberScope(int64(orgID)), orderID)
	assert.Error(t, err)
	testutil.AssertCount(t, f.db, `SELECT COUNT(*) FROM company_teams`, 0)
}
