// Package seed bootstraps the plan catalog so a fresh install has purchasable
// plans without manual SQL.
package seed

import (
	"context"
	"errors"
	"time"

	plandomain "github.com/lubetrack/lubetrack/internal/plan/domain"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

// defaultPlans is the out-of-the-box catalog. Existing rows are never
// overwritten, so operators can adjust prices in place.
var defaultPlans = []plandomain.Plan{
	{
		ID:                 "basico",
		Name:               "Plan Básico",
		PlanType:           plandomain.PlanTypeMonthly,
		PriceMonthly:       1500000,
		PriceSemiannual:    7500000,
		MaxUsers:           2,
		MaxMonthlyServices: intPtr(100),
		IsActive:           true,
		PublishOnHomepage:  true,
	},
	{
		ID:                "premium",
		Name:              "Plan Premium",
		PlanType:          plandomain.PlanTypeMonthly,
		PriceMonthly:      2500000,
		PriceSemiannual:   12500000,
		MaxUsers:          5,
		IsActive:          true,
		PublishOnHomepage: true,
	},
	{
		ID:                "pack50",
		Name:              "Pack 50 Servicios",
		PlanType:          plandomain.PlanTypeServiceCount,
		MaxUsers:          3,
		ServicePrice:      4000000,
		TotalServices:     50,
		ValidityMonths:    6,
		IsActive:          true,
		PublishOnHomepage: true,
	},
	{
		ID:             "pack100",
		Name:           "Pack 100 Servicios",
		PlanType:       plandomain.PlanTypeServiceCount,
		MaxUsers:       5,
		ServicePrice:   7000000,
		TotalServices:  100,
		ValidityMonths: 6,
		IsActive:       true,
	},
}

// EnsureDefaultPlans inserts any missing catalog rows.
func EnsureDefaultPlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, plan := range defaultPlans {
			if err := ensurePlanTx(ctx, tx, plan); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensurePlanTx(ctx context.Context, tx *gorm.DB, plan plandomain.Plan) error {
	var existing plandomain.Plan
	err := tx.WithContext(ctx).Where("id = ?", plan.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return tx.WithContext(ctx).Create(&plan).Error
}
