package domain

import (
	"fmt"
	"time"

	plandomain "github.com/lubetrack/lubetrack/internal/plan/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
)

const (
	// creditValidityMonths is how far a credit purchase or renewal pushes the
	// service-bucket expiry.
	creditValidityMonths = 6
	// staleTopUpCutoffMonths: buckets expired longer than this must be fully
	// renewed instead of topped up.
	staleTopUpCutoffMonths = 12
)

// Payment is the gateway-reported completed transaction consumed by the
// engine. Deduplication by external id happens before this point.
type Payment struct {
	ID                string
	Status            string
	PlanID            string
	BillingType       tenantdomain.BillingType
	ExternalReference string
	Method            string
}

const PaymentStatusApproved = "approved"

// ApplyApprovedPayment transitions the tenant onto the purchased plan and
// returns the snapshot plus the history entry to append. The monthly counter
// is reset on every paid activation: a fresh billing period always starts at
// zero, even when switching plans mid-cycle (no pro-rated carry-over).
func ApplyApprovedPayment(t tenantdomain.Tenant, catalog plandomain.Catalog, p Payment, now time.Time) (tenantdomain.Tenant, tenantdomain.PaymentRecord, error) {
	if p.Status != PaymentStatusApproved {
		return t, tenantdomain.PaymentRecord{}, fmt.Errorf("%w: status %q", ErrPaymentNotApproved, p.Status)
	}
	plan, ok := catalog.Lookup(p.PlanID)
	if !ok {
		return t, tenantdomain.PaymentRecord{}, fmt.Errorf("%w: %q", ErrUnknownPlan, p.PlanID)
	}

	billingType := p.BillingType
	if billingType == "" {
		billingType = tenantdomain.BillingMonthly
	}

	var amount int64
	start := now
	var end time.Time

	switch plan.PlanType {
	case plandomain.PlanTypeServiceCount:
		// Billing type is ignored for one-time bucket purchases.
		amount = plan.ServicePrice
		end = start.AddDate(0, plan.ValidityMonths, 0)

		t.RenewalType = tenantdomain.RenewalServiceCount
		t.TotalServicesContracted = plan.TotalServices
		t.ServicesUsed = 0
		t.ServiceSubscriptionExpiry = &end

	default:
		if billingType == tenantdomain.BillingSemiannual {
			amount = plan.PriceSemiannual
			end = start.AddDate(0, 6, 0)
			t.RenewalType = tenantdomain.RenewalSemiannual
		} else {
			amount = plan.PriceMonthly
			end = start.AddDate(0, 1, 0)
			t.RenewalType = tenantdomain.RenewalMonthly
		}
	}

	t.PlanID = plan.ID
	t.Status = tenantdomain.StatusActive
	t.PaymentStat = tenantdomain.PaymentPaid
	t.AutoRenewal = true
	t.ServicesUsedThisMonth = 0
	t.SubscriptionStart = &start
	t.SubscriptionEnd = &end
	t.BillingCycleEnd = &end

	// The requested change has now been realized.
	t.PendingPlanID = ""
	t.PendingBillingType = ""

	normalizeCounters(&t)

	rec := tenantdomain.PaymentRecord{
		TenantID:          t.ID,
		Amount:            amount,
		Method:            "gateway",
		ExternalReference: p.ExternalReference,
		PlanID:            plan.ID,
		BillingType:       billingType,
		PaidAt:            now,
	}
	if p.Method != "" {
		rec.Method = p.Method
	}
	return t, rec, nil
}

// RequestPlanChange validates that the new plan can accommodate current usage
// and stores advisory pending markers. Entitlement does not change until the
// matching approved payment arrives.
func RequestPlanChange(t tenantdomain.Tenant, catalog plandomain.Catalog, newPlanID string, billingType tenantdomain.BillingType) (tenantdomain.Tenant, error) {
	if t.Status != tenantdomain.StatusActive {
		return t, ErrTenantNotActive
	}
	plan, ok := catalog.Lookup(newPlanID)
	if !ok {
		return t, fmt.Errorf("%w: %q", ErrUnknownPlan, newPlanID)
	}

	if plan.MaxMonthlyServices != nil && t.ServicesUsedThisMonth > *plan.MaxMonthlyServices {
		return t, fmt.Errorf("%w: plan allows %d services per month, tenant already used %d",
			ErrServiceLimitExceeded, *plan.MaxMonthlyServices, t.ServicesUsedThisMonth)
	}
	if plan.MaxUsers > 0 && t.ActiveUserCount > plan.MaxUsers {
		return t, fmt.Errorf("%w: plan allows %d users, tenant has %d",
			ErrUserLimitExceeded, plan.MaxUsers, t.ActiveUserCount)
	}

	t.PendingPlanID = plan.ID
	if billingType == "" {
		billingType = tenantdomain.BillingMonthly
	}
	t.PendingBillingType = billingType
	return t, nil
}

// PurchaseAdditionalServices adds credits to the existing bucket. Strictly
// additive: totals and remaining grow by n, servicesUsed is untouched. The
// expiry extends six months from the current expiry, or from now when the
// bucket already expired (no retroactive accumulation).
func PurchaseAdditionalServices(t tenantdomain.Tenant, n int, now time.Time) (tenantdomain.Tenant, error) {
	if t.RenewalType != tenantdomain.RenewalServiceCount {
		return t, ErrNotServicePlan
	}
	if n < 1 {
		return t, fmt.Errorf("%w: %d", ErrInvalidQuantity, n)
	}

	t.TotalServicesContracted += n

	base := now
	if t.ServiceSubscriptionExpiry != nil && t.ServiceSubscriptionExpiry.After(now) {
		base = *t.ServiceSubscriptionExpiry
	}
	expiry := base.AddDate(0, creditValidityMonths, 0)
	t.ServiceSubscriptionExpiry = &expiry
	t.SubscriptionEnd = &expiry
	t.BillingCycleEnd = &expiry

	// A confirmed credit purchase is itself a payment confirmation.
	t.Status = tenantdomain.StatusActive
	t.PaymentStat = tenantdomain.PaymentPaid

	normalizeCounters(&t)
	return t, nil
}

// Eligibility is the answer of CanPurchaseMoreServices.
type Eligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanPurchaseMoreServices is the pre-check shown before offering a top-up.
func CanPurchaseMoreServices(t tenantdomain.Tenant, now time.Time) Eligibility {
	if t.RenewalType != tenantdomain.RenewalServiceCount {
		return Eligibility{Reason: "plan is a monthly subscription, no service credits needed"}
	}
	if t.ServiceSubscriptionExpiry != nil {
		cutoff := t.ServiceSubscriptionExpiry.AddDate(0, staleTopUpCutoffMonths, 0)
		if cutoff.Before(now) {
			return Eligibility{Reason: "service plan expired too long ago, a full renewal is required"}
		}
	}
	return Eligibility{Allowed: true}
}

// RenewPlan replaces the service bucket outright, discarding carry-over.
// Unlike PurchaseAdditionalServices this is never additive.
func RenewPlan(t tenantdomain.Tenant, newTotalServices int, resetUsageCounters bool, now time.Time) tenantdomain.Tenant {
	t.RenewalType = tenantdomain.RenewalServiceCount
	t.TotalServicesContracted = newTotalServices
	if resetUsageCounters {
		t.ServicesUsed = 0
		t.ServicesUsedThisMonth = 0
	}

	expiry := now.AddDate(0, creditValidityMonths, 0)
	t.ServiceSubscriptionExpiry = &expiry
	t.SubscriptionEnd = &expiry
	t.BillingCycleEnd = &expiry

	t.Status = tenantdomain.StatusActive
	t.PaymentStat = tenantdomain.PaymentPaid

	normalizeCounters(&t)
	return t
}

// ConsumeService records one performed service against the tenant's
// entitlement. It is the single write path the oil-change log goes through.
func ConsumeService(t tenantdomain.Tenant, catalog plandomain.Catalog, policy TrialPolicy, now time.Time) (tenantdomain.Tenant, error) {
	ent := ResolveEntitlement(t, catalog, policy, now)
	if ent.LimitReached {
		return t, ErrNoEntitlement
	}

	switch {
	case t.Status == tenantdomain.StatusTrial:
		t.ServicesUsedThisMonth++
	case t.RenewalType == tenantdomain.RenewalServiceCount:
		t.ServicesUsed++
	default:
		t.ServicesUsedThisMonth++
	}

	normalizeCounters(&t)
	return t, nil
}

// normalizeCounters re-establishes servicesRemaining = max(0, contracted -
// used) after every engine operation.
func normalizeCounters(t *tenantdomain.Tenant) {
	remaining := t.TotalServicesContracted - t.ServicesUsed
	if remaining < 0 {
		remaining = 0
	}
	t.ServicesRemaining = remaining
}
