package service_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/product/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/product/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/product/service"
	"github.com/oldski/sportsfestDashboard-sub002/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	eventYearID = snowflake.ID(2026)
	teamProduct = snowflake.ID(800)
	tentProduct = snowflake.ID(900)
)

func setup(t *testing.T) (*gorm.DB, domain.Service) {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.SeedProduct(t, db, teamProduct, eventYearID, "Company Team", "team_registration", 150000)
	testutil.SeedProduct(t, db, tentProduct, eventYearID, "10x10 Tent", "tent_rental", 25000)

	return db, service.New(service.Params{
		DB:   db,
		Log:  zaptest.NewLogger(t),
		Repo: repository.Provide(),
	})
}

func TestGetManyRequiresEveryProduct(t *testing.T) {
	_, svc := setup(t)

	products, err := svc.GetMany(context.Background(), []snowflake.ID{teamProduct, tentProduct})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, domain.ProductTypeTentRental, products[tentProduct].Type)

	_, err = svc.GetMany(context.Background(), []snowflake.ID{teamProduct, 12345})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveTentProductInsideTransaction(t *testing.T) {
	db, svc := setup(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		id, ok, err := svc.ResolveTentProduct(context.Background(), tx, eventYearID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, tentProduct, id)
		return nil
	})
	require.NoError(t, err)
}

func TestResolveTentProductMissing(t *testing.T) {
	db, svc := setup(t)

	_, ok, err := svc.ResolveTentProduct(context.Background(), db, snowflake.ID(2025))
	require.NoError(t, err)
	assert.False(t, ok)
}
