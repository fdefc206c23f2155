// Package domain contains persistence models for tenants (lubricentros) and
// their payment history.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status represents a tenant's lifecycle state. Inactive tenants may never
// consume services regardless of their counters.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusTrial    Status = "trial"
)

// RenewalType determines which entitlement arithmetic applies. It is
// orthogonal to the plan reference.
type RenewalType string

const (
	RenewalMonthly      RenewalType = "monthly"
	RenewalSemiannual   RenewalType = "semiannual"
	RenewalAnnual       RenewalType = "annual"
	RenewalServiceCount RenewalType = "service_count"
)

// Recurring reports whether the renewal type is one of the calendar-based
// subscriptions rather than a fixed service bucket.
func (r RenewalType) Recurring() bool {
	switch r {
	case RenewalMonthly, RenewalSemiannual, RenewalAnnual:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks the billing state of the tenant.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOverdue PaymentStatus = "overdue"
)

// BillingType selects which recurring price applies on checkout.
type BillingType string

const (
	BillingMonthly    BillingType = "monthly"
	BillingSemiannual BillingType = "semiannual"
)

// Tenant is one subscribed shop. The Version column backs optimistic
// concurrency: every engine-driven update must carry the version it read.
type Tenant struct {
	ID     snowflake.ID `json:"id" gorm:"primaryKey"`
	Name   string       `json:"name" gorm:"type:text;not null"`
	Slug   string       `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Email  string       `json:"email" gorm:"type:text;not null"`
	Status Status       `json:"status" gorm:"type:text;not null;index"`

	// PlanID may reference a plan that is no longer in the catalog; that is
	// tolerated as "unknown plan" and never an error on the read path.
	PlanID      string        `json:"plan_id" gorm:"type:text"`
	RenewalType RenewalType   `json:"renewal_type" gorm:"type:text;not null"`
	PaymentStat PaymentStatus `json:"payment_status" gorm:"column:payment_status;type:text;not null"`

	SubscriptionStart *time.Time `json:"subscription_start"`
	SubscriptionEnd   *time.Time `json:"subscription_end"`
	BillingCycleEnd   *time.Time `json:"billing_cycle_end"`
	TrialEnd          *time.Time `json:"trial_end"`
	AutoRenewal       bool       `json:"auto_renewal" gorm:"not null;default:false"`

	// Monthly-plan counter, reset at calendar-month boundaries by the scheduler.
	// MonthlyUsageResetAt records when the last reset ran so the job stays
	// idempotent within a month.
	ServicesUsedThisMonth int        `json:"services_used_this_month" gorm:"not null;default:0"`
	MonthlyUsageResetAt   *time.Time `json:"monthly_usage_reset_at"`

	// ServiceCount-plan counters. servicesRemaining is always
	// max(0, contracted - used); the engine re-establishes this after every
	// operation.
	TotalServicesContracted   int        `json:"total_services_contracted" gorm:"not null;default:0"`
	ServicesUsed              int        `json:"services_used" gorm:"not null;default:0"`
	ServicesRemaining         int        `json:"services_remaining" gorm:"not null;default:0"`
	ServiceSubscriptionExpiry *time.Time `json:"service_subscription_expiry"`

	ActiveUserCount int `json:"active_user_count" gorm:"not null;default:0"`

	// Advisory markers for a plan change awaiting payment. They do not affect
	// entitlement until the matching approved payment arrives.
	PendingPlanID      string      `json:"pending_plan_id" gorm:"type:text"`
	PendingBillingType BillingType `json:"pending_billing_type" gorm:"type:text"`

	Version   int64     `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// PaymentRecord is an immutable payment-history entry. Rows are only ever
// appended, never updated or deleted.
type PaymentRecord struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	TenantID          snowflake.ID `json:"tenant_id" gorm:"not null;index"`
	Amount            int64        `json:"amount" gorm:"not null"`
	Method            string       `json:"method" gorm:"type:text;not null"`
	ExternalReference string       `json:"external_reference" gorm:"type:text"`
	PlanID            string       `json:"plan_id" gorm:"type:text"`
	BillingType       BillingType  `json:"billing_type" gorm:"type:text"`
	PaidAt            time.Time    `json:"paid_at" gorm:"not null"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null"`
}

// TableName sets the database table name.
func (PaymentRecord) TableName() string { return "payment_records" }
