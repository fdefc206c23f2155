package domain

import (
	"time"

	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
)

// TrialPolicy is the fixed evaluation-period policy. The service limit is a
// total for the whole trial, not a per-month allowance.
type TrialPolicy struct {
	Days         int
	ServiceLimit int
}

func DefaultTrialPolicy() TrialPolicy {
	return TrialPolicy{Days: 7, ServiceLimit: 10}
}

// TrialState is the computed trial entitlement. Expired and LimitReached are
// independent triggers: either one alone means the tenant must upgrade.
type TrialState struct {
	DaysRemaining     int  `json:"days_remaining"`
	ServicesRemaining int  `json:"services_remaining"`
	Expired           bool `json:"expired"`
	LimitReached      bool `json:"limit_reached"`
}

// State computes the trial window from the tenant creation date. A zero or
// future creation date counts as "created now" so a missing or unparseable
// date never penalizes the tenant.
func (p TrialPolicy) State(t tenantdomain.Tenant, now time.Time) TrialState {
	created := t.CreatedAt
	if created.IsZero() || created.After(now) {
		created = now
	}

	daysElapsed := int(now.Sub(created).Hours() / 24)
	daysRemaining := p.Days - daysElapsed
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	servicesRemaining := p.ServiceLimit - t.ServicesUsedThisMonth
	if servicesRemaining < 0 {
		servicesRemaining = 0
	}

	return TrialState{
		DaysRemaining:     daysRemaining,
		ServicesRemaining: servicesRemaining,
		Expired:           daysRemaining == 0,
		LimitReached:      servicesRemaining == 0,
	}
}
