package repository_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	orgID       = snowflake.ID(100)
	eventYearID = snowflake.ID(2026)
	tentProduct = snowflake.ID(900)
)

func TestIncrementIfWithinCapRefusesOverflow(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := repository.Provide()
	testutil.SeedTentTracking(t, db, 1, orgID, eventYearID, tentProduct, 1)

	ok, err := repo.IncrementIfWithinCap(ctx, db, orgID, eventYearID, 2, testutil.Epoch)
	require.NoError(t, err)
	assert.False(t, ok)

	tracking, err := repo.Find(ctx, db, orgID, eventYearID)
	require.NoError(t, err)
	require.NotNil(t, tracking)
	assert.Equal(t, 1, tracking.QuantityPurchased)
	assert.Equal(t, 1, tracking.RemainingAllowed)
	assert.Equal(t, domain.MaxTentsPerOrganization, tracking.MaxAllowed)
}

func TestIncrementIfWithinCapFillsToLimit(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := repository.Provide()
	testutil.SeedTentTracking(t, db, 1, orgID, eventYearID, tentProduct, 1)

	ok, err := repo.IncrementIfWithinCap(ctx, db, orgID, eventYearID, 1, testutil.Epoch)
	require.NoError(t, err)
	assert.True(t, ok)

	tracking, err := repo.Find(ctx, db, orgID, eventYearID)
	require.NoError(t, err)
	assert.Equal(t, 2, tracking.QuantityPurchased)
	assert.Equal(t, 0, tracking.RemainingAllowed)
}

func TestIncrementIfWithinCapWithoutRow(t *testing.T) {
	db := testutil.OpenDB(t)

	ok, err := repository.Provide().IncrementIfWithinCap(context.Background(), db, orgID, eventYearID, 1, testutil.Epoch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertIfAbsentKeepsExistingRow(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := repository.Provide()
	testutil.SeedTentTracking(t, db, 1, orgID, eventYearID, tentProduct, 2)

	inserted, err := repo.InsertIfAbsent(ctx, db, &domain.Tracking{
		ID:               2,
		OrgID:            orgID,
		EventYearID:      eventYearID,
		TentProductID:    tentProduct,
		MaxAllowed:       domain.MaxTentsPerOrganization,
		RemainingAllowed: domain.MaxTentsPerOrganization,
		CreatedAt:        testutil.Epoch,
		UpdatedAt:        testutil.Epoch,
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	testutil.AssertCount(t, db, `SELECT quantity_purchased FROM tent_purchase_tracking WHERE org_id = ?`, 2, orgID)
}
