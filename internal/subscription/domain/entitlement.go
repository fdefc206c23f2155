package domain

import (
	"time"

	plandomain "github.com/lubetrack/lubetrack/internal/plan/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
)

// expiryWarningWindow is how close a subscription end date may come before the
// entitlement is flagged as expiring. Trials warn at two days remaining.
const (
	expiryWarningWindow  = 7 * 24 * time.Hour
	trialWarningDaysLeft = 2
)

// Entitlement answers "how much can this tenant still use, and is it
// blocked". Total and Remaining are nil when no cap applies (unlimited plan)
// or when the cap cannot be resolved (catalog gap, fail open).
type Entitlement struct {
	Used             int         `json:"used"`
	Total            *int        `json:"total"`
	Remaining        *int        `json:"remaining"`
	LimitReached     bool        `json:"limit_reached"`
	UserLimitReached bool        `json:"user_limit_reached"`
	IsExpiring       bool        `json:"is_expiring"`
	CatalogMissing   bool        `json:"catalog_missing"`
	Trial            *TrialState `json:"trial,omitempty"`
}

// ResolveEntitlement dispatches on (status, renewalType).
//
// A monthly tenant whose plan is missing from the catalog gets a degraded,
// unlimited-looking entitlement with CatalogMissing set: blocking a paying
// tenant over a catalog lookup gap is worse than temporarily over-permitting.
// ServiceCount tenants never need the catalog at all; their bucket lives on
// the tenant record.
func ResolveEntitlement(t tenantdomain.Tenant, catalog plandomain.Catalog, policy TrialPolicy, now time.Time) Entitlement {
	switch t.Status {
	case tenantdomain.StatusTrial:
		trial := policy.State(t, now)
		total := policy.ServiceLimit
		remaining := trial.ServicesRemaining
		return Entitlement{
			Used:         t.ServicesUsedThisMonth,
			Total:        &total,
			Remaining:    &remaining,
			LimitReached: trial.LimitReached || trial.Expired,
			IsExpiring:   trial.DaysRemaining <= trialWarningDaysLeft,
			Trial:        &trial,
		}

	case tenantdomain.StatusInactive:
		zero := 0
		return Entitlement{
			Used:         t.ServicesUsed,
			Remaining:    &zero,
			LimitReached: true,
		}
	}

	// Active.
	if !t.RenewalType.Recurring() {
		total := t.TotalServicesContracted
		remaining := t.ServicesRemaining
		return Entitlement{
			Used:         t.ServicesUsed,
			Total:        &total,
			Remaining:    &remaining,
			LimitReached: remaining == 0,
			IsExpiring:   within(t.ServiceSubscriptionExpiry, now, expiryWarningWindow),
		}
	}

	ent := Entitlement{
		Used: t.ServicesUsedThisMonth,
		IsExpiring: within(t.SubscriptionEnd, now, expiryWarningWindow) ||
			within(t.BillingCycleEnd, now, expiryWarningWindow),
	}

	plan, ok := catalog.Lookup(t.PlanID)
	if !ok {
		ent.CatalogMissing = true
		return ent
	}

	if plan.MaxMonthlyServices != nil {
		total := *plan.MaxMonthlyServices
		remaining := total - t.ServicesUsedThisMonth
		if remaining < 0 {
			remaining = 0
		}
		ent.Total = &total
		ent.Remaining = &remaining
		ent.LimitReached = t.ServicesUsedThisMonth >= total
	}
	if plan.MaxUsers > 0 && t.ActiveUserCount >= plan.MaxUsers {
		ent.UserLimitReached = true
	}
	return ent
}

// within reports whether ts falls inside [now, now+window]. A past date is
// not "expiring"; it is already expired and handled by status transitions.
func within(ts *time.Time, now time.Time, window time.Duration) bool {
	if ts == nil {
		return false
	}
	d := ts.Sub(now)
	return d >= 0 && d <= window
}
