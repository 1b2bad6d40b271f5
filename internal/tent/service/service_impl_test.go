package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	productrepo "github.com/oldski/sportsfestDashboard-sub002/internal/product/repository"
	productservice "github.com/oldski/sportsfestDashboard-sub002/internal/product/service"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/service"
	"github.com/oldski/sportsfestDashboard-sub002/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	orgID       = snowflake.ID(100)
	eventYearID = snowflake.ID(2026)
	tentProduct = snowflake.ID(900)
)

func newService(t *testing.T, db *gorm.DB) domain.Service {
	t.Helper()
	log := zap.NewNop()
	return service.NewService(service.Params{
		DB:    db,
		Log:   log,
		GenID: testutil.NewNode(t),
		Clock: clock.NewFakeClock(testutil.Epoch),
		Repo:  repository.Provide(),
		ProductSvc: productservice.New(productservice.Params{
			DB:   db,
			Log:  log,
			Repo: productrepo.Provide(),
		}),
		Authz: testutil.AllowAll{},
	})
}

func reserve(ctx context.Context, db *gorm.DB, svc domain.Service, req domain.ReserveRequest) (*domain.ReserveResult, error) {
	var result *domain.ReserveResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = svc.Reserve(ctx, tx, req)
		return err
	})
	return result, err
}

func TestReserveCreatesTrackingOnFirstUse(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db)

	result, err := reserve(ctx, db, svc, domain.ReserveRequest{
		OrgID: orgID, EventYearID: eventYearID, TentProductID: tentProduct, Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Tracked)
	require.NotNil(t, result.Tracking)
	assert.Equal(t, 1, result.Tracking.QuantityPurchased)
	assert.Equal(t, 2, result.Tracking.MaxAllowed)
	assert.Equal(t, 1, result.Tracking.RemainingAllowed)

	result, err = reserve(ctx, db, svc, domain.ReserveRequest{
		OrgID: orgID, EventYearID: eventYearID, TentProductID: tentProduct, Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Tracking.QuantityPurchased)
	assert.Equal(t, 0, result.Tracking.RemainingAllowed)
}

func TestReserveRejectsOverCapWithoutWriting(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db)
	testutil.SeedTentTracking(t, db, 1, orgID, eventYearID, tentProduct, 1)

	_, err := reserve(ctx, db, svc, domain.ReserveRequest{
		OrgID: orgID, EventYearID: eventYearID, TentProductID: tentProduct, Quantity: 2,
	})
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)

	var quotaErr *domain.QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, 1, quotaErr.Current)
	assert.Equal(t, 2, quotaErr.Requested)
	assert.Equal(t, "Organization would exceed 2-tent limit (current: 1, requested: 2)", quotaErr.Error())

	testutil.AssertCount(t, db, `SELECT quantity_purchased FROM tent_purchase_tracking WHERE org_id = ?`, 1, orgID)
}

func TestReserveRejectsOversizedFirstRequest(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db)

	_, err := reserve(ctx, db, svc, domain.ReserveRequest{
		OrgID: orgID, EventYearID: eventYearID, TentProductID: tentProduct, Quantity: 3,
	})
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM tent_purchase_tracking`, 0)
}

func TestReserveSkipsWhenNoTentProduct(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db)

	result, err := reserve(ctx, db, svc, domain.ReserveRequest{
		OrgID: orgID, EventYearID: eventYearID, Quantity: 1,
	})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, result.Tracked)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM tent_purchase_tracking`, 0)
}

func TestReserveResolvesTentProductForEventYear(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db)
	testutil.SeedProduct(t, db, tentProduct, eventYearID, "10x10 Tent", "tent_rental", 25000)

	result, err := reserve(ctx, db, svc, domain.ReserveRequest{
		OrgID: orgID, EventYearID: eventYearID, Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, tentProduct, result.Tracking.TentProductID)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newService(t, db)

	_, err := svc.Reserve(context.Background(), db, domain.ReserveRequest{OrgID: orgID, EventYearID: eventYearID})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestConcurrentReservationsNeverPassCap(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenPooledDB(t, 4)
	svc := newService(t, db)

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reserve(ctx, db, svc, domain.ReserveRequest{
				OrgID: orgID, EventYearID: eventYearID, TentProductID: tentProduct, Quantity: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrQuotaExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, attempts-2, rejected)
	testutil.AssertCount(t, db, `SELECT quantity_purchased FROM tent_purchase_tracking WHERE org_id = ?`, 2, orgID)
	testutil.AssertCount(t, db, `SELECT remaining_allowed FROM tent_purchase_tracking WHERE org_id = ?`, 0, orgID)
}

func TestGetTrackingDefaultsWhenAbsent(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newService(t, db)

	tracking, err := svc.GetTracking(context.Background(), testutil.MemberScope(int64(orgID)), eventYearID)
	require.NoError(t, err)
	assert.Equal(t, 0, tracking.QuantityPurchased)
	assert.Equal(t, 2, tracking.RemainingAllowed)
}
