package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrTenantNotFound  = errors.New("tenant_not_found")
	ErrSlugTaken       = errors.New("slug_taken")
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrVersionConflict = errors.New("version_conflict")
	// ErrUpdateFailed is surfaced after the bounded retry budget is exhausted.
	ErrUpdateFailed = errors.New("update_failed")
)

type CreateTenantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdateTenantRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ImportTenantRequest carries one tenant document from a legacy export. The
// timestamp fields are deliberately untyped: exports mix native times, RFC
// 3339 strings, unix seconds/milliseconds, and {"seconds": ...} wrappers on
// the same field, and NormalizeTimestamp sorts them out on the way in.
type ImportTenantRequest struct {
	Name          string `json:"name"`
	Slug          string `json:"slug,omitempty"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	PlanID        string `json:"plan_id"`
	RenewalType   string `json:"renewal_type"`
	PaymentStatus string `json:"payment_status"`
	AutoRenewal   bool   `json:"auto_renewal"`

	SubscriptionStart         any `json:"subscription_start"`
	SubscriptionEnd           any `json:"subscription_end"`
	BillingCycleEnd           any `json:"billing_cycle_end"`
	TrialEnd                  any `json:"trial_end"`
	ServiceSubscriptionExpiry any `json:"service_subscription_expiry"`
	CreatedAt                 any `json:"created_at"`

	ServicesUsedThisMonth   int `json:"services_used_this_month"`
	TotalServicesContracted int `json:"total_services_contracted"`
	ServicesUsed            int `json:"services_used"`
	ActiveUserCount         int `json:"active_user_count"`
}

type Service interface {
	Create(ctx context.Context, req CreateTenantRequest) (Tenant, error)
	// Import ingests one tenant document from a legacy export, normalizing
	// its timestamp representations. Unknown statuses import as inactive.
	Import(ctx context.Context, req ImportTenantRequest) (Tenant, error)
	Get(ctx context.Context, id snowflake.ID) (Tenant, error)
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateTenantRequest) (Tenant, error)
	Deactivate(ctx context.Context, id snowflake.ID) (Tenant, error)
	ListPayments(ctx context.Context, id snowflake.ID) ([]PaymentRecord, error)

	// Mutate runs fn against a fresh snapshot and persists the result with an
	// optimistic version check, retrying from a fresh read on conflict. The
	// records fn returns are appended to the payment history in the same
	// transaction.
	Mutate(ctx context.Context, id snowflake.ID, fn MutateFunc) (Tenant, error)
}

// MutateFunc computes the next tenant snapshot from the current one. It must
// be pure: no I/O, safe to re-run on a version conflict.
type MutateFunc func(t Tenant) (Tenant, []PaymentRecord, error)
