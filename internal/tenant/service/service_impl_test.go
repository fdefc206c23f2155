package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/tenant/domain"
	"github.com/lubetrack/lubetrack/internal/tenant/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Tenant{}, &domain.PaymentRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Cfg:   config.Config{TrialDays: 7, UpdateRetryLimit: 3},
		Repo:  repository.Provide(),
	}).(*Service)

	return svc, db, fakeClock
}

func TestCreateStartsTrial(t *testing.T) {
	svc, _, fakeClock := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateTenantRequest{
		Name:  "Lubricentro San Martín",
		Email: "dueño@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "lubricentro-san-martin", created.Slug)
	assert.Equal(t, domain.StatusTrial, created.Status)
	assert.Equal(t, domain.PaymentPending, created.PaymentStat)
	assert.Equal(t, int64(1), created.Version)
	require.NotNil(t, created.TrialEnd)
	assert.Equal(t, fakeClock.Now().AddDate(0, 0, 7), *created.TrialEnd)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Slug, fetched.Slug)

	bySlug, err := svc.GetBySlug(ctx, "lubricentro-san-martin")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Taller Norte"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateTenantRequest{Name: "Taller Norte"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc, _, _ := setupService(t)
	_, err := svc.Create(context.Background(), domain.CreateTenantRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidTenant)
}

func TestGetMissingTenant(t *testing.T) {
	svc, _, _ := setupService(t)
	_, err := svc.Get(context.Background(), snowflake.ID(123456))
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
}

func TestMutateBumpsVersion(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Taller Uno"})
	require.NoError(t, err)

	updated, err := svc.Mutate(ctx, created.ID, func(t domain.Tenant) (domain.Tenant, []domain.PaymentRecord, error) {
		t.Status = domain.StatusActive
		return t, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, updated.Version)
	assert.Equal(t, domain.StatusActive, updated.Status)
}

func TestMutateRetriesOnConflict(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Taller Dos"})
	require.NoError(t, err)

	// First attempt loses the race: a concurrent writer bumps the version
	// between the read and the write.
	attempts := 0
	updated, err := svc.Mutate(ctx, created.ID, func(tn domain.Tenant) (domain.Tenant, []domain.PaymentRecord, error) {
		attempts++
		if attempts == 1 {
			require.NoError(t, db.Exec(
				"UPDATE tenants SET version = version + 1 WHERE id = ?", created.ID,
			).Error)
		}
		tn.ServicesUsed = 42
		return tn, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 42, updated.ServicesUsed)
}

func TestMutateGivesUpAfterRetryBudget(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Taller Tres"})
	require.NoError(t, err)

	_, err = svc.Mutate(ctx, created.ID, func(tn domain.Tenant) (domain.Tenant, []domain.PaymentRecord, error) {
		// Every attempt races against another writer.
		require.NoError(t, db.Exec(
			"UPDATE tenants SET version = version + 1 WHERE id = ?", created.ID,
		).Error)
		return tn, nil, nil
	})
	assert.ErrorIs(t, err, domain.ErrUpdateFailed)
}

func TestMutateAppendsPaymentHistory(t *testing.T) {
	svc, _, fakeClock := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Taller Cuatro"})
	require.NoError(t, err)

	_, err = svc.Mutate(ctx, created.ID, func(t domain.Tenant) (domain.Tenant, []domain.PaymentRecord, error) {
		t.Status = domain.StatusActive
		return t, []domain.PaymentRecord{{
			Amount:            1500000,
			Method:            "gateway",
			ExternalReference: "order-77",
			PlanID:            "basic",
			PaidAt:            fakeClock.Now(),
		}}, nil
	})
	require.NoError(t, err)

	payments, err := svc.ListPayments(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, created.ID, payments[0].TenantID)
	assert.Equal(t, int64(1500000), payments[0].Amount)
	assert.NotZero(t, payments[0].ID)
}

func TestDeactivate(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Taller Cinco"})
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, deactivated.Status)
	assert.False(t, deactivated.AutoRenewal)
}

func TestUpdatePatchesFields(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Taller Seis", Email: "old@example.com"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, domain.UpdateTenantRequest{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Taller Seis", updated.Name)
	assert.Equal(t, "new@example.com", updated.Email)
}

func TestImportTenantNormalizesTimestamps(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	want := time.Date(2025, 11, 20, 10, 30, 0, 0, time.UTC)
	imported, err := svc.Import(ctx, domain.ImportTenantRequest{
		Name:                      "Lubricentro Centro",
		Status:                    "active",
		PlanID:                    "pack50",
		RenewalType:               "service_count",
		PaymentStatus:             "paid",
		SubscriptionStart:         "2025-11-20T10:30:00Z",
		SubscriptionEnd:           int64(1763634600),
		ServiceSubscriptionExpiry: map[string]any{"seconds": float64(1763634600)},
		TrialEnd:                  "never expires",
		CreatedAt:                 "2024-06-01 09:00:00",
		TotalServicesContracted:   50,
		ServicesUsed:              12,
	})
	require.NoError(t, err)

	assert.Equal(t, "lubricentro-centro", imported.Slug)
	assert.Equal(t, domain.StatusActive, imported.Status)
	assert.Equal(t, domain.RenewalServiceCount, imported.RenewalType)
	assert.Equal(t, domain.PaymentPaid, imported.PaymentStat)

	require.NotNil(t, imported.SubscriptionStart)
	assert.Equal(t, want, *imported.SubscriptionStart)
	require.NotNil(t, imported.SubscriptionEnd)
	assert.Equal(t, want, *imported.SubscriptionEnd)
	require.NotNil(t, imported.ServiceSubscriptionExpiry)
	assert.Equal(t, want, *imported.ServiceSubscriptionExpiry)
	// An unparseable optional date imports as unset, never invented.
	assert.Nil(t, imported.TrialEnd)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), imported.CreatedAt)

	assert.Equal(t, 50, imported.TotalServicesContracted)
	assert.Equal(t, 12, imported.ServicesUsed)
	assert.Equal(t, 38, imported.ServicesRemaining)
	assert.Equal(t, int64(1), imported.Version)

	fetched, err := svc.Get(ctx, imported.ID)
	require.NoError(t, err)
	assert.Equal(t, "lubricentro-centro", fetched.Slug)
}

func TestImportTenantDefaults(t *testing.T) {
	svc, _, fakeClock := setupService(t)
	ctx := context.Background()

	imported, err := svc.Import(ctx, domain.ImportTenantRequest{
		Name:          "Taller Sin Datos",
		Status:        "suspended?",
		RenewalType:   "weekly",
		PaymentStatus: "unknown",
		CreatedAt:     "not a date",
		ServicesUsed:  -3,
	})
	require.NoError(t, err)

	// Anything unrecognized imports blocked until an operator verifies it.
	assert.Equal(t, domain.StatusInactive, imported.Status)
	assert.Equal(t, domain.RenewalMonthly, imported.RenewalType)
	assert.Equal(t, domain.PaymentPending, imported.PaymentStat)
	assert.Equal(t, fakeClock.Now(), imported.CreatedAt)
	assert.Zero(t, imported.ServicesUsed)
	assert.Nil(t, imported.SubscriptionEnd)
}

func TestImportTenantValidation(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, domain.ImportTenantRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidTenant)

	_, err = svc.Import(ctx, domain.ImportTenantRequest{Name: "Lubricentro Centro"})
	require.NoError(t, err)
	_, err = svc.Import(ctx, domain.ImportTenantRequest{Name: "Lubricentro Centro"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}
