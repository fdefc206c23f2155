package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"gorm.io/gorm"
)

// WorkTenant is the claim row the sweep jobs operate on. Only the id matters
// for the follow-up mutation; the rest is for logging.
type WorkTenant struct {
	ID     snowflake.ID
	Status tenantdomain.Status
}

func (s *Scheduler) fetchTenantsForMonthlyReset(ctx context.Context, tx *gorm.DB, monthStart time.Time, limit int) ([]WorkTenant, error) {
	var tenants []WorkTenant
	err := tx.WithContext(ctx).Raw(
		`SELECT id, status
		 FROM tenants
		 WHERE status = ?
		   AND renewal_type IN (?, ?, ?)
		   AND (monthly_usage_reset_at IS NULL OR monthly_usage_reset_at < ?)
		 ORDER BY id
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		tenantdomain.StatusActive,
		tenantdomain.RenewalMonthly,
		tenantdomain.RenewalSemiannual,
		tenantdomain.RenewalAnnual,
		monthStart,
		limit,
	).Scan(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (s *Scheduler) fetchExpiredTenants(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]WorkTenant, error) {
	var tenants []WorkTenant
	err := tx.WithContext(ctx).Raw(
		`SELECT id, status
		 FROM tenants
		 WHERE status = ?
		   AND auto_renewal = ?
		   AND subscription_end IS NOT NULL
		   AND subscription_end <= ?
		 ORDER BY id
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		tenantdomain.StatusActive,
		false,
		now,
		limit,
	).Scan(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (s *Scheduler) fetchExpiredTrials(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]WorkTenant, error) {
	var tenants []WorkTenant
	err := tx.WithContext(ctx).Raw(
		`SELECT id, status
		 FROM tenants
		 WHERE status = ?
		   AND trial_end IS NOT NULL
		   AND trial_end <= ?
		 ORDER BY id
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		tenantdomain.StatusTrial,
		now,
		limit,
	).Scan(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}
