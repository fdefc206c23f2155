// Package domain implements the subscription lifecycle engine: pure decision
// logic over a tenant snapshot and a plan catalog snapshot. Nothing in this
// package performs I/O; callers persist the returned snapshot under an
// optimistic version check.
package domain

import "errors"

var (
	// ErrPaymentNotApproved is returned when a gateway event with a
	// non-approved status reaches the payment transition. Retryable by the
	// user.
	ErrPaymentNotApproved = errors.New("payment_not_approved")
	// ErrUnknownPlan is returned when a purchase or plan change references a
	// plan id missing from the catalog. Read paths never return this; they
	// degrade instead.
	ErrUnknownPlan = errors.New("unknown_plan")
	// ErrServiceLimitExceeded means current monthly usage does not fit the
	// requested plan.
	ErrServiceLimitExceeded = errors.New("service_limit_exceeded")
	// ErrUserLimitExceeded means current seats do not fit the requested plan.
	ErrUserLimitExceeded = errors.New("user_limit_exceeded")
	// ErrNotServicePlan is returned when credits are purchased for a tenant
	// that is not on a service-count plan.
	ErrNotServicePlan = errors.New("not_service_plan")
	// ErrInvalidQuantity is returned for credit purchases below one unit.
	ErrInvalidQuantity = errors.New("invalid_quantity")
	// ErrTenantNotActive guards operations that require an active tenant.
	ErrTenantNotActive = errors.New("tenant_not_active")
	// ErrNoEntitlement is returned when a service consumption is blocked.
	ErrNoEntitlement = errors.New("no_entitlement")
)
