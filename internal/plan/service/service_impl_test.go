package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/plan/domain"
	"github.com/lubetrack/lubetrack/internal/plan/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPlanService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Plan{}))

	svc := New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Cfg:  config.Config{PlanCacheTTL: time.Minute},
		Repo: repository.Provide(),
	})
	return svc, db
}

func seedPlan(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&domain.Plan{
		ID:           id,
		Name:         id,
		PlanType:     domain.PlanTypeMonthly,
		PriceMonthly: 1000,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Error)
}

func TestCatalogLookup(t *testing.T) {
	svc, db := setupPlanService(t)
	ctx := context.Background()
	seedPlan(t, db, "basic")
	seedPlan(t, db, "premium")

	catalog, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 2)

	plan, ok := catalog.Lookup("basic")
	assert.True(t, ok)
	assert.Equal(t, "basic", plan.ID)

	_, ok = catalog.Lookup("ghost")
	assert.False(t, ok)
}

func TestGetUnknownPlan(t *testing.T) {
	svc, _ := setupPlanService(t)
	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestCatalogIsCached(t *testing.T) {
	svc, db := setupPlanService(t)
	ctx := context.Background()
	seedPlan(t, db, "basic")

	first, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A row added after the first load is invisible until the TTL expires.
	seedPlan(t, db, "premium")

	second, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestListReturnsAllPlans(t *testing.T) {
	svc, db := setupPlanService(t)
	ctx := context.Background()
	seedPlan(t, db, "basic")
	seedPlan(t, db, "premium")

	plans, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}
