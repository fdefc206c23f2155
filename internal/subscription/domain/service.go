package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
)

// Service orchestrates the pure engine over persisted tenant snapshots. Every
// mutation goes through the tenant store's optimistic read-modify-write loop.
type Service interface {
	Entitlement(ctx context.Context, tenantID snowflake.ID) (Entitlement, error)
	TrialState(ctx context.Context, tenantID snowflake.ID) (TrialState, error)
	RequestPlanChange(ctx context.Context, tenantID snowflake.ID, newPlanID string, billingType tenantdomain.BillingType) (tenantdomain.Tenant, error)
	PurchaseCredits(ctx context.Context, tenantID snowflake.ID, additionalCount int) (tenantdomain.Tenant, error)
	CreditEligibility(ctx context.Context, tenantID snowflake.ID) (Eligibility, error)
	Renew(ctx context.Context, tenantID snowflake.ID, newTotalServices int, resetUsageCounters bool) (tenantdomain.Tenant, error)
	// ApplyPayment realizes an approved gateway payment. Callers must have
	// already deduplicated by external payment id.
	ApplyPayment(ctx context.Context, tenantID snowflake.ID, payment Payment) (tenantdomain.Tenant, error)
	// ConsumeService burns one service credit; the oil-change log calls this
	// for every registered service.
	ConsumeService(ctx context.Context, tenantID snowflake.ID) (tenantdomain.Tenant, error)
}
