// Package scheduler runs the clock-driven maintenance jobs: the monthly usage
// reset and the subscription/trial expiry sweeps. Work is claimed in short
// transactions with FOR UPDATE SKIP LOCKED so multiple instances can run the
// same jobs concurrently.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/metrics"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	TenantSvc tenantdomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
	Config    Config           `optional:"true"`
}

type Scheduler struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       Config
	clock     clock.Clock
	tenantSvc tenantdomain.Service
	metrics   *metrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.TenantSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:        p.DB,
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		clock:     p.Clock,
		tenantSvc: p.TenantSvc,
		metrics:   p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	if s.metrics != nil {
		s.metrics.SchedulerJobRuns.WithLabelValues(name).Inc()
	}

	err := fn(ctx)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	if s.metrics != nil {
		s.metrics.SchedulerJobErrors.WithLabelValues(name).Inc()
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"monthly_reset", s.MonthlyResetJob},
		{"expiry_sweep", s.ExpirySweepJob},
		{"trial_sweep", s.TrialSweepJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		run := job.Run
		err = errors.Join(err, s.runJob(parent, job.Name, run))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs means all jobs run (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// MonthlyResetJob zeroes servicesUsedThisMonth for recurring-plan tenants
// that have not been reset since the start of the current calendar month.
func (s *Scheduler) MonthlyResetJob(ctx context.Context) error {
	now := s.clock.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var jobErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var claimed []WorkTenant
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			claimed, err = s.fetchTenantsForMonthlyReset(ctx, tx, monthStart, s.cfg.BatchSize)
			return err
		})
		if err != nil {
			return errors.Join(jobErr, err)
		}
		if len(claimed) == 0 {
			break
		}

		processed := 0
		for _, work := range claimed {
			_, err := s.tenantSvc.Mutate(ctx, work.ID, func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
				// Re-check under the version guard: the tenant may have moved
				// to a service bucket or been reset between claim and mutate.
				if !t.RenewalType.Recurring() {
					return t, nil, nil
				}
				if t.MonthlyUsageResetAt != nil && !t.MonthlyUsageResetAt.Before(monthStart) {
					return t, nil, nil
				}
				t.ServicesUsedThisMonth = 0
				resetAt := now
				t.MonthlyUsageResetAt = &resetAt
				return t, nil, nil
			})
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				s.log.Warn("monthly reset failed",
					zap.String("tenant_id", work.ID.String()),
					zap.Error(err),
				)
				continue
			}
			processed++
		}

		if s.metrics != nil && processed > 0 {
			s.metrics.TenantsSwept.WithLabelValues("monthly_reset").Add(float64(processed))
		}
		// A batch where nothing was mutated would otherwise re-claim the same
		// rows forever.
		if processed == 0 {
			break
		}
	}

	return jobErr
}

// ExpirySweepJob deactivates active tenants whose subscription ended and that
// do not auto-renew. Payment status moves to overdue so the tenant surfaces
// in billing views.
func (s *Scheduler) ExpirySweepJob(ctx context.Context) error {
	now := s.clock.Now()
	return s.sweep(ctx, "expiry_sweep",
		func(tx *gorm.DB) ([]WorkTenant, error) {
			return s.fetchExpiredTenants(ctx, tx, now, s.cfg.BatchSize)
		},
		func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
			if t.Status != tenantdomain.StatusActive || t.AutoRenewal {
				return t, nil, nil
			}
			if t.SubscriptionEnd == nil || t.SubscriptionEnd.After(now) {
				return t, nil, nil
			}
			t.Status = tenantdomain.StatusInactive
			t.PaymentStat = tenantdomain.PaymentOverdue
			return t, nil, nil
		},
	)
}

// TrialSweepJob deactivates trial tenants past their trial end. Entitlement
// already denies them dynamically; the sweep makes the state visible.
func (s *Scheduler) TrialSweepJob(ctx context.Context) error {
	now := s.clock.Now()
	return s.sweep(ctx, "trial_sweep",
		func(tx *gorm.DB) ([]WorkTenant, error) {
			return s.fetchExpiredTrials(ctx, tx, now, s.cfg.BatchSize)
		},
		func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
			if t.Status != tenantdomain.StatusTrial {
				return t, nil, nil
			}
			if t.TrialEnd == nil || t.TrialEnd.After(now) {
				return t, nil, nil
			}
			t.Status = tenantdomain.StatusInactive
			return t, nil, nil
		},
	)
}

func (s *Scheduler) sweep(
	ctx context.Context,
	name string,
	claim func(tx *gorm.DB) ([]WorkTenant, error),
	apply tenantdomain.MutateFunc,
) error {
	var jobErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var claimed []WorkTenant
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			claimed, err = claim(tx)
			return err
		})
		if err != nil {
			return errors.Join(jobErr, err)
		}
		if len(claimed) == 0 {
			break
		}

		processed := 0
		for _, work := range claimed {
			if _, err := s.tenantSvc.Mutate(ctx, work.ID, apply); err != nil {
				jobErr = errors.Join(jobErr, err)
				s.log.Warn("sweep failed",
					zap.String("job", name),
					zap.String("tenant_id", work.ID.String()),
					zap.Error(err),
				)
				continue
			}
			processed++
		}

		if s.metrics != nil && processed > 0 {
			s.metrics.TenantsSwept.WithLabelValues(name).Add(float64(processed))
		}
		if processed == 0 {
			break
		}
	}

	return jobErr
}
