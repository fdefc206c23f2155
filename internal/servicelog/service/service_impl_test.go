package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/servicelog/domain"
	"github.com/lubetrack/lubetrack/internal/servicelog/repository"
	subscriptiondomain "github.com/lubetrack/lubetrack/internal/subscription/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mockSubscriptionSvc counts credit consumptions and can deny them.
type mockSubscriptionSvc struct {
	consumed int
	denyWith error
}

func (m *mockSubscriptionSvc) Entitlement(context.Context, snowflake.ID) (subscriptiondomain.Entitlement, error) {
	return subscriptiondomain.Entitlement{}, nil
}
func (m *mockSubscriptionSvc) TrialState(context.Context, snowflake.ID) (subscriptiondomain.TrialState, error) {
	return subscriptiondomain.TrialState{}, nil
}
func (m *mockSubscriptionSvc) RequestPlanChange(context.Context, snowflake.ID, string, tenantdomain.BillingType) (tenantdomain.Tenant, error) {
	return tenantdomain.Tenant{}, nil
}
func (m *mockSubscriptionSvc) PurchaseCredits(context.Context, snowflake.ID, int) (tenantdomain.Tenant, error) {
	return tenantdomain.Tenant{}, nil
}
func (m *mockSubscriptionSvc) CreditEligibility(context.Context, snowflake.ID) (subscriptiondomain.Eligibility, error) {
	return subscriptiondomain.Eligibility{}, nil
}
func (m *mockSubscriptionSvc) Renew(context.Context, snowflake.ID, int, bool) (tenantdomain.Tenant, error) {
	return tenantdomain.Tenant{}, nil
}
func (m *mockSubscriptionSvc) ApplyPayment(context.Context, snowflake.ID, subscriptiondomain.Payment) (tenantdomain.Tenant, error) {
	return tenantdomain.Tenant{}, nil
}
func (m *mockSubscriptionSvc) ConsumeService(context.Context, snowflake.ID) (tenantdomain.Tenant, error) {
	if m.denyWith != nil {
		return tenantdomain.Tenant{}, m.denyWith
	}
	m.consumed++
	return tenantdomain.Tenant{}, nil
}

func setupServicelog(t *testing.T) (domain.Service, *mockSubscriptionSvc, *clock.FakeClock, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ServiceRecord{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	subs := &mockSubscriptionSvc{}
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:              db,
		Log:             zap.NewNop(),
		GenID:           node,
		Clock:           fakeClock,
		Cfg:             config.Config{UpcomingWindowDays: 7},
		Repo:            repository.Provide(),
		SubscriptionSvc: subs,
	})
	return svc, subs, fakeClock, db
}

func TestRegisterConsumesCredit(t *testing.T) {
	svc, subs, fakeClock, _ := setupServicelog(t)
	ctx := context.Background()
	tenantID := snowflake.ID(100)

	record, err := svc.Register(ctx, domain.RegisterRequest{
		TenantID:     tenantID,
		LicensePlate: " ab 123 cd ",
		CustomerName: "Ana López",
		OilType:      "10W-40",
		Mileage:      85000,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, subs.consumed)
	assert.Equal(t, "AB 123 CD", record.LicensePlate)
	assert.Equal(t, fakeClock.Now(), record.ServiceDate)

	fetched, err := svc.Get(ctx, tenantID, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana López", fetched.CustomerName)
}

func TestRegisterBlockedWithoutEntitlement(t *testing.T) {
	svc, subs, _, db := setupServicelog(t)
	subs.denyWith = subscriptiondomain.ErrNoEntitlement

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		TenantID:     snowflake.ID(100),
		LicensePlate: "AB123CD",
		CustomerName: "Ana López",
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrNoEntitlement)

	// No record may exist when the credit was denied.
	var count int64
	require.NoError(t, db.Model(&domain.ServiceRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterValidation(t *testing.T) {
	svc, subs, _, _ := setupServicelog(t)

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		TenantID:     snowflake.ID(100),
		LicensePlate: "  ",
		CustomerName: "Ana",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	_, err = svc.Register(context.Background(), domain.RegisterRequest{
		TenantID:     snowflake.ID(100),
		LicensePlate: "AB123CD",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	// Validation failures never burn a credit.
	assert.Zero(t, subs.consumed)
}

func TestListFiltersByPlate(t *testing.T) {
	svc, _, _, _ := setupServicelog(t)
	ctx := context.Background()
	tenantID := snowflake.ID(100)

	for _, plate := range []string{"AAA111", "BBB222", "AAA111"} {
		_, err := svc.Register(ctx, domain.RegisterRequest{
			TenantID:     tenantID,
			LicensePlate: plate,
			CustomerName: "Cliente",
		})
		require.NoError(t, err)
	}

	records, err := svc.List(ctx, tenantID, domain.ListQuery{LicensePlate: "aaa111"})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	all, err := svc.List(ctx, tenantID, domain.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListIsTenantScoped(t *testing.T) {
	svc, _, _, _ := setupServicelog(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{
		TenantID:     snowflake.ID(100),
		LicensePlate: "AAA111",
		CustomerName: "Cliente",
	})
	require.NoError(t, err)

	records, err := svc.List(ctx, snowflake.ID(200), domain.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpdatePatchesFields(t *testing.T) {
	svc, _, _, _ := setupServicelog(t)
	ctx := context.Background()
	tenantID := snowflake.ID(100)

	record, err := svc.Register(ctx, domain.RegisterRequest{
		TenantID:     tenantID,
		LicensePlate: "AB123CD",
		CustomerName: "Ana",
		Mileage:      85000,
	})
	require.NoError(t, err)

	newMileage := 90000
	notes := "cambio de filtro de aire"
	updated, err := svc.Update(ctx, tenantID, record.ID, domain.UpdateRequest{
		Mileage: &newMileage,
		Notes:   &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, 90000, updated.Mileage)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, "Ana", updated.CustomerName)
}

func TestDeleteMissingRecord(t *testing.T) {
	svc, _, _, _ := setupServicelog(t)
	err := svc.Delete(context.Background(), snowflake.ID(100), snowflake.ID(9999))
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestDashboard(t *testing.T) {
	svc, _, fakeClock, _ := setupServicelog(t)
	ctx := context.Background()
	tenantID := snowflake.ID(100)

	now := fakeClock.Now()
	lastWeek := now.AddDate(0, 0, -10)
	nextVisit := now.AddDate(0, 0, 3)

	_, err := svc.Register(ctx, domain.RegisterRequest{
		TenantID:        tenantID,
		LicensePlate:    "AAA111",
		CustomerName:    "Hoy",
		NextServiceDate: &nextVisit,
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.RegisterRequest{
		TenantID:     tenantID,
		LicensePlate: "BBB222",
		CustomerName: "Semana pasada",
		ServiceDate:  &lastWeek,
	})
	require.NoError(t, err)

	dashboard, err := svc.Dashboard(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dashboard.ServicesToday)
	assert.Equal(t, int64(2), dashboard.ServicesThisMonth)
	require.Len(t, dashboard.Upcoming, 1)
	assert.Equal(t, "AAA111", dashboard.Upcoming[0].LicensePlate)
}
