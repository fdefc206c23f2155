package domain

import (
	"testing"
	"time"

	plandomain "github.com/lubetrack/lubetrack/internal/plan/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func testCatalog() plandomain.Catalog {
	return plandomain.Catalog{
		"basic": {
			ID:                 "basic",
			Name:               "Basic",
			PlanType:           plandomain.PlanTypeMonthly,
			PriceMonthly:       1500000,
			PriceSemiannual:    7500000,
			MaxUsers:           3,
			MaxMonthlyServices: intPtr(100),
		},
		"premium": {
			ID:              "premium",
			Name:            "Premium",
			PlanType:        plandomain.PlanTypeMonthly,
			PriceMonthly:    2500000,
			PriceSemiannual: 12500000,
			MaxUsers:        5,
		},
		"pack50": {
			ID:             "pack50",
			Name:           "Pack 50",
			PlanType:       plandomain.PlanTypeServiceCount,
			ServicePrice:   4000000,
			TotalServices:  50,
			ValidityMonths: 6,
		},
	}
}

func activeServiceTenant(contracted, used int) tenantdomain.Tenant {
	remaining := contracted - used
	if remaining < 0 {
		remaining = 0
	}
	return tenantdomain.Tenant{
		ID:                      1,
		Status:                  tenantdomain.StatusActive,
		RenewalType:             tenantdomain.RenewalServiceCount,
		PaymentStat:             tenantdomain.PaymentPaid,
		TotalServicesContracted: contracted,
		ServicesUsed:            used,
		ServicesRemaining:       remaining,
	}
}

var engineNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestApplyApprovedPaymentMonthly(t *testing.T) {
	tenant := tenantdomain.Tenant{
		ID:                    7,
		Status:                tenantdomain.StatusTrial,
		RenewalType:           tenantdomain.RenewalMonthly,
		PaymentStat:           tenantdomain.PaymentPending,
		ServicesUsedThisMonth: 4,
		PendingPlanID:         "basic",
		PendingBillingType:    tenantdomain.BillingMonthly,
	}

	next, rec, err := ApplyApprovedPayment(tenant, testCatalog(), Payment{
		ID:                "trx-1",
		Status:            PaymentStatusApproved,
		PlanID:            "basic",
		BillingType:       tenantdomain.BillingMonthly,
		ExternalReference: "order-1",
	}, engineNow)
	require.NoError(t, err)

	assert.Equal(t, tenantdomain.StatusActive, next.Status)
	assert.Equal(t, tenantdomain.PaymentPaid, next.PaymentStat)
	assert.Equal(t, "basic", next.PlanID)
	assert.Equal(t, tenantdomain.RenewalMonthly, next.RenewalType)
	assert.True(t, next.AutoRenewal)
	assert.Equal(t, 0, next.ServicesUsedThisMonth, "paid activation starts the monthly counter at zero")
	assert.Empty(t, next.PendingPlanID)
	assert.Empty(t, next.PendingBillingType)

	require.NotNil(t, next.SubscriptionEnd)
	assert.Equal(t, engineNow.AddDate(0, 1, 0), *next.SubscriptionEnd)

	assert.Equal(t, int64(1500000), rec.Amount)
	assert.Equal(t, "gateway", rec.Method)
	assert.Equal(t, "order-1", rec.ExternalReference)
	assert.Equal(t, "basic", rec.PlanID)
	assert.Equal(t, engineNow, rec.PaidAt)
}

func TestApplyApprovedPaymentSemiannual(t *testing.T) {
	next, rec, err := ApplyApprovedPayment(tenantdomain.Tenant{Status: tenantdomain.StatusActive}, testCatalog(), Payment{
		Status:      PaymentStatusApproved,
		PlanID:      "premium",
		BillingType: tenantdomain.BillingSemiannual,
	}, engineNow)
	require.NoError(t, err)

	assert.Equal(t, tenantdomain.RenewalSemiannual, next.RenewalType)
	assert.Equal(t, int64(12500000), rec.Amount)
	require.NotNil(t, next.SubscriptionEnd)
	assert.Equal(t, engineNow.AddDate(0, 6, 0), *next.SubscriptionEnd)
}

func TestApplyApprovedPaymentServiceCount(t *testing.T) {
	tenant := activeServiceTenant(20, 18)

	next, rec, err := ApplyApprovedPayment(tenant, testCatalog(), Payment{
		Status: PaymentStatusApproved,
		PlanID: "pack50",
		// Billing type is ignored for bucket purchases.
		BillingType: tenantdomain.BillingSemiannual,
	}, engineNow)
	require.NoError(t, err)

	assert.Equal(t, tenantdomain.RenewalServiceCount, next.RenewalType)
	assert.Equal(t, 50, next.TotalServicesContracted)
	assert.Equal(t, 0, next.ServicesUsed)
	assert.Equal(t, 50, next.ServicesRemaining)
	assert.Equal(t, int64(4000000), rec.Amount)
	require.NotNil(t, next.ServiceSubscriptionExpiry)
	assert.Equal(t, engineNow.AddDate(0, 6, 0), *next.ServiceSubscriptionExpiry)
}

func TestApplyApprovedPaymentRejectsUnapproved(t *testing.T) {
	_, _, err := ApplyApprovedPayment(tenantdomain.Tenant{}, testCatalog(), Payment{
		Status: "pending",
		PlanID: "basic",
	}, engineNow)
	assert.ErrorIs(t, err, ErrPaymentNotApproved)
}

func TestApplyApprovedPaymentRejectsUnknownPlan(t *testing.T) {
	_, _, err := ApplyApprovedPayment(tenantdomain.Tenant{}, testCatalog(), Payment{
		Status: PaymentStatusApproved,
		PlanID: "ghost",
	}, engineNow)
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestRequestPlanChange(t *testing.T) {
	base := tenantdomain.Tenant{
		Status:                tenantdomain.StatusActive,
		ServicesUsedThisMonth: 50,
		ActiveUserCount:       2,
	}

	next, err := RequestPlanChange(base, testCatalog(), "basic", tenantdomain.BillingSemiannual)
	require.NoError(t, err)
	assert.Equal(t, "basic", next.PendingPlanID)
	assert.Equal(t, tenantdomain.BillingSemiannual, next.PendingBillingType)
	// Advisory only: nothing else moves until the payment lands.
	assert.Equal(t, base.Status, next.Status)
	assert.Equal(t, base.PlanID, next.PlanID)
}

func TestRequestPlanChangeServiceLimit(t *testing.T) {
	tenant := tenantdomain.Tenant{
		Status:                tenantdomain.StatusActive,
		ServicesUsedThisMonth: 150,
	}
	_, err := RequestPlanChange(tenant, testCatalog(), "basic", tenantdomain.BillingMonthly)
	assert.ErrorIs(t, err, ErrServiceLimitExceeded)
	assert.Contains(t, err.Error(), "100")
	assert.Contains(t, err.Error(), "150")
}

func TestRequestPlanChangeUserLimit(t *testing.T) {
	tenant := tenantdomain.Tenant{
		Status:          tenantdomain.StatusActive,
		ActiveUserCount: 5,
	}
	_, err := RequestPlanChange(tenant, testCatalog(), "basic", tenantdomain.BillingMonthly)
	assert.ErrorIs(t, err, ErrUserLimitExceeded)
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "5")
}

func TestRequestPlanChangeRequiresActive(t *testing.T) {
	for _, status := range []tenantdomain.Status{tenantdomain.StatusTrial, tenantdomain.StatusInactive} {
		_, err := RequestPlanChange(tenantdomain.Tenant{Status: status}, testCatalog(), "basic", "")
		assert.ErrorIs(t, err, ErrTenantNotActive, "status %s", status)
	}
}

func TestPurchaseAdditionalServicesAdds(t *testing.T) {
	tenant := activeServiceTenant(50, 30)

	next, err := PurchaseAdditionalServices(tenant, 25, engineNow)
	require.NoError(t, err)

	assert.Equal(t, 75, next.TotalServicesContracted)
	assert.Equal(t, 30, next.ServicesUsed, "usage is never touched by a top-up")
	assert.Equal(t, 45, next.ServicesRemaining)
	assert.Equal(t, tenantdomain.StatusActive, next.Status)
	assert.Equal(t, tenantdomain.PaymentPaid, next.PaymentStat)
	require.NotNil(t, next.ServiceSubscriptionExpiry)
	assert.Equal(t, engineNow.AddDate(0, 6, 0), *next.ServiceSubscriptionExpiry)
}

func TestPurchaseAdditionalServicesExtendsFutureExpiry(t *testing.T) {
	tenant := activeServiceTenant(50, 0)
	expiry := engineNow.AddDate(0, 2, 0)
	tenant.ServiceSubscriptionExpiry = &expiry

	next, err := PurchaseAdditionalServices(tenant, 10, engineNow)
	require.NoError(t, err)
	assert.Equal(t, expiry.AddDate(0, 6, 0), *next.ServiceSubscriptionExpiry)
}

func TestPurchaseAdditionalServicesRevivesExpiredBucket(t *testing.T) {
	tenant := activeServiceTenant(50, 50)
	expiry := engineNow.AddDate(0, -3, 0)
	tenant.ServiceSubscriptionExpiry = &expiry
	tenant.Status = tenantdomain.StatusInactive
	tenant.PaymentStat = tenantdomain.PaymentOverdue

	next, err := PurchaseAdditionalServices(tenant, 10, engineNow)
	require.NoError(t, err)

	// Expired bucket extends from now, not from the stale expiry.
	assert.Equal(t, engineNow.AddDate(0, 6, 0), *next.ServiceSubscriptionExpiry)
	assert.Equal(t, tenantdomain.StatusActive, next.Status)
	assert.Equal(t, tenantdomain.PaymentPaid, next.PaymentStat)
	assert.Equal(t, 10, next.ServicesRemaining)
}

func TestPurchaseAdditionalServicesValidation(t *testing.T) {
	monthly := tenantdomain.Tenant{Status: tenantdomain.StatusActive, RenewalType: tenantdomain.RenewalMonthly}
	_, err := PurchaseAdditionalServices(monthly, 10, engineNow)
	assert.ErrorIs(t, err, ErrNotServicePlan)

	for _, n := range []int{0, -5} {
		_, err := PurchaseAdditionalServices(activeServiceTenant(10, 0), n, engineNow)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "n=%d", n)
	}
}

func TestPurchaseAdditivity(t *testing.T) {
	// purchase(purchase(T, a), b) ends with contracted grown by exactly a+b.
	tenant := activeServiceTenant(40, 12)

	step, err := PurchaseAdditionalServices(tenant, 7, engineNow)
	require.NoError(t, err)
	final, err := PurchaseAdditionalServices(step, 13, engineNow)
	require.NoError(t, err)

	assert.Equal(t, tenant.TotalServicesContracted+20, final.TotalServicesContracted)
	assert.Equal(t, tenant.ServicesUsed, final.ServicesUsed)
	assert.Equal(t, final.TotalServicesContracted-final.ServicesUsed, final.ServicesRemaining)
}

func TestCanPurchaseMoreServices(t *testing.T) {
	assert.True(t, CanPurchaseMoreServices(activeServiceTenant(10, 0), engineNow).Allowed)

	monthly := tenantdomain.Tenant{RenewalType: tenantdomain.RenewalMonthly}
	got := CanPurchaseMoreServices(monthly, engineNow)
	assert.False(t, got.Allowed)
	assert.NotEmpty(t, got.Reason)

	stale := activeServiceTenant(10, 10)
	staleExpiry := engineNow.AddDate(0, -13, 0)
	stale.ServiceSubscriptionExpiry = &staleExpiry
	got = CanPurchaseMoreServices(stale, engineNow)
	assert.False(t, got.Allowed)
	assert.NotEmpty(t, got.Reason)

	// Exactly at the edge of the cutoff is still allowed.
	edge := activeServiceTenant(10, 10)
	edgeExpiry := engineNow.AddDate(0, -12, 0)
	edge.ServiceSubscriptionExpiry = &edgeExpiry
	assert.True(t, CanPurchaseMoreServices(edge, engineNow).Allowed)
}

func TestRenewPlanReplaces(t *testing.T) {
	// Replacement ignores prior totals entirely.
	for _, prior := range []int{0, 40, 500} {
		tenant := activeServiceTenant(prior, 25)
		next := RenewPlan(tenant, 100, false, engineNow)
		assert.Equal(t, 100, next.TotalServicesContracted, "prior=%d", prior)
		assert.Equal(t, 25, next.ServicesUsed)
		assert.Equal(t, 75, next.ServicesRemaining)
		assert.Equal(t, engineNow.AddDate(0, 6, 0), *next.ServiceSubscriptionExpiry)
	}
}

func TestRenewPlanResetCounters(t *testing.T) {
	tenant := activeServiceTenant(40, 25)
	tenant.ServicesUsedThisMonth = 9

	next := RenewPlan(tenant, 100, true, engineNow)
	assert.Equal(t, 0, next.ServicesUsed)
	assert.Equal(t, 0, next.ServicesUsedThisMonth)
	assert.Equal(t, 100, next.ServicesRemaining)
}

func TestRenewNeverNegativeRemaining(t *testing.T) {
	// Shrinking below current usage clamps remaining at zero instead of going
	// negative.
	tenant := activeServiceTenant(100, 80)
	next := RenewPlan(tenant, 50, false, engineNow)
	assert.Equal(t, 50, next.TotalServicesContracted)
	assert.Equal(t, 80, next.ServicesUsed)
	assert.Equal(t, 0, next.ServicesRemaining)
}

func TestRenewVersusPurchaseDistinct(t *testing.T) {
	tenant := activeServiceTenant(40, 10)

	renewed := RenewPlan(tenant, 100, false, engineNow)
	topped, err := PurchaseAdditionalServices(tenant, 100, engineNow)
	require.NoError(t, err)

	assert.Equal(t, 100, renewed.TotalServicesContracted)
	assert.Equal(t, 140, topped.TotalServicesContracted)
}

func TestConsumeServiceBucket(t *testing.T) {
	tenant := activeServiceTenant(10, 8)
	policy := DefaultTrialPolicy()

	next, err := ConsumeService(tenant, testCatalog(), policy, engineNow)
	require.NoError(t, err)
	assert.Equal(t, 9, next.ServicesUsed)
	assert.Equal(t, 1, next.ServicesRemaining)

	next, err = ConsumeService(next, testCatalog(), policy, engineNow)
	require.NoError(t, err)
	assert.Equal(t, 0, next.ServicesRemaining)

	_, err = ConsumeService(next, testCatalog(), policy, engineNow)
	assert.ErrorIs(t, err, ErrNoEntitlement)
}

func TestConsumeServiceTrial(t *testing.T) {
	policy := TrialPolicy{Days: 7, ServiceLimit: 2}
	tenant := tenantdomain.Tenant{
		Status:    tenantdomain.StatusTrial,
		CreatedAt: engineNow.AddDate(0, 0, -1),
	}

	next, err := ConsumeService(tenant, testCatalog(), policy, engineNow)
	require.NoError(t, err)
	assert.Equal(t, 1, next.ServicesUsedThisMonth)

	next, err = ConsumeService(next, testCatalog(), policy, engineNow)
	require.NoError(t, err)

	_, err = ConsumeService(next, testCatalog(), policy, engineNow)
	assert.ErrorIs(t, err, ErrNoEntitlement)
}

func TestConsumeServiceInactive(t *testing.T) {
	tenant := activeServiceTenant(10, 0)
	tenant.Status = tenantdomain.StatusInactive

	_, err := ConsumeService(tenant, testCatalog(), DefaultTrialPolicy(), engineNow)
	assert.ErrorIs(t, err, ErrNoEntitlement)
}

func TestConsumeServiceMonthlyCap(t *testing.T) {
	tenant := tenantdomain.Tenant{
		Status:                tenantdomain.StatusActive,
		RenewalType:           tenantdomain.RenewalMonthly,
		PlanID:                "basic",
		ServicesUsedThisMonth: 99,
	}

	next, err := ConsumeService(tenant, testCatalog(), DefaultTrialPolicy(), engineNow)
	require.NoError(t, err)
	assert.Equal(t, 100, next.ServicesUsedThisMonth)

	_, err = ConsumeService(next, testCatalog(), DefaultTrialPolicy(), engineNow)
	assert.ErrorIs(t, err, ErrNoEntitlement)
}
