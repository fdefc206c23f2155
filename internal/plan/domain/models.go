// Package domain contains the plan catalog models.
//
// Plans are read-only at runtime: the engine only ever looks them up, it never
// writes them. All money amounts are integer cents.
package domain

import "time"

// PlanType distinguishes recurring plans from fixed service buckets.
type PlanType string

const (
	// PlanTypeMonthly is a recurring subscription billed monthly or semiannually.
	PlanTypeMonthly PlanType = "monthly"
	// PlanTypeServiceCount is a one-time purchase of a fixed bucket of services.
	PlanTypeServiceCount PlanType = "service_count"
)

// Plan is one purchasable catalog entry.
type Plan struct {
	ID       string   `json:"id" gorm:"primaryKey;type:text"`
	Name     string   `json:"name" gorm:"type:text;not null"`
	PlanType PlanType `json:"plan_type" gorm:"type:text;not null"`

	// Monthly plans.
	PriceMonthly    int64 `json:"price_monthly" gorm:"not null;default:0"`
	PriceSemiannual int64 `json:"price_semiannual" gorm:"not null;default:0"`
	MaxUsers        int   `json:"max_users" gorm:"not null;default:0"`
	// MaxMonthlyServices caps services per calendar month; nil means unlimited.
	MaxMonthlyServices *int `json:"max_monthly_services" gorm:""`

	// ServiceCount plans.
	ServicePrice   int64 `json:"service_price" gorm:"not null;default:0"`
	TotalServices  int   `json:"total_services" gorm:"not null;default:0"`
	ValidityMonths int   `json:"validity_months" gorm:"not null;default:0"`

	// Visibility flags consumed by presentation only.
	IsActive          bool `json:"is_active" gorm:"not null;default:true"`
	PublishOnHomepage bool `json:"publish_on_homepage" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// Catalog is an id-to-plan snapshot handed to the lifecycle engine.
type Catalog map[string]Plan

// Lookup returns the plan for id. Unknown ids are tolerated everywhere in the
// engine, so the second return value must always be checked.
func (c Catalog) Lookup(id string) (Plan, bool) {
	p, ok := c[id]
	return p, ok
}
