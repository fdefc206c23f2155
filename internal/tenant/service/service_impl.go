package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	trialDays  int
	retryLimit int
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
	Repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("tenant.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		trialDays:  p.Cfg.TrialDays,
		retryLimit: p.Cfg.UpdateRetryLimit,
	}
}

// Create registers a new tenant in trial status. Entitlement during the trial
// derives from the trial policy, not from any plan.
func (s *Service) Create(ctx context.Context, req domain.CreateTenantRequest) (domain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Tenant{}, domain.ErrInvalidTenant
	}

	tenantSlug := slug.Make(name)
	existing, err := s.repo.FindBySlug(ctx, s.db, tenantSlug)
	if err != nil {
		return domain.Tenant{}, err
	}
	if existing != nil {
		return domain.Tenant{}, domain.ErrSlugTaken
	}

	now := s.clock.Now()
	trialEnd := now.AddDate(0, 0, s.trialDays)
	t := domain.Tenant{
		ID:          s.genID.Generate(),
		Name:        name,
		Slug:        tenantSlug,
		Email:       strings.TrimSpace(req.Email),
		Status:      domain.StatusTrial,
		RenewalType: domain.RenewalMonthly,
		PaymentStat: domain.PaymentPending,
		TrialEnd:    &trialEnd,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &t); err != nil {
		return domain.Tenant{}, err
	}
	s.log.Info("tenant created",
		zap.String("tenant_id", t.ID.String()),
		zap.String("slug", t.Slug),
	)
	return t, nil
}

// Import ingests one legacy tenant document. Every timestamp field goes
// through NormalizeTimestamp; a field that cannot be made sense of imports as
// unset rather than failing the whole document. Unknown statuses land as
// inactive so nothing imported by accident can consume services.
func (s *Service) Import(ctx context.Context, req domain.ImportTenantRequest) (domain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Tenant{}, domain.ErrInvalidTenant
	}

	tenantSlug := strings.TrimSpace(req.Slug)
	if tenantSlug == "" {
		tenantSlug = slug.Make(name)
	}
	existing, err := s.repo.FindBySlug(ctx, s.db, tenantSlug)
	if err != nil {
		return domain.Tenant{}, err
	}
	if existing != nil {
		return domain.Tenant{}, domain.ErrSlugTaken
	}

	now := s.clock.Now()
	contracted := max(0, req.TotalServicesContracted)
	used := max(0, req.ServicesUsed)
	t := domain.Tenant{
		ID:          s.genID.Generate(),
		Name:        name,
		Slug:        tenantSlug,
		Email:       strings.TrimSpace(req.Email),
		Status:      importStatus(req.Status),
		PlanID:      strings.TrimSpace(req.PlanID),
		RenewalType: importRenewalType(req.RenewalType),
		PaymentStat: importPaymentStatus(req.PaymentStatus),
		AutoRenewal: req.AutoRenewal,

		SubscriptionStart:         optionalTimestamp(req.SubscriptionStart),
		SubscriptionEnd:           optionalTimestamp(req.SubscriptionEnd),
		BillingCycleEnd:           optionalTimestamp(req.BillingCycleEnd),
		TrialEnd:                  optionalTimestamp(req.TrialEnd),
		ServiceSubscriptionExpiry: optionalTimestamp(req.ServiceSubscriptionExpiry),

		ServicesUsedThisMonth:   max(0, req.ServicesUsedThisMonth),
		TotalServicesContracted: contracted,
		ServicesUsed:            used,
		ServicesRemaining:       max(0, contracted-used),
		ActiveUserCount:         max(0, req.ActiveUserCount),

		Version:   1,
		CreatedAt: domain.NormalizeTimestamp(req.CreatedAt, now),
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &t); err != nil {
		return domain.Tenant{}, err
	}
	s.log.Info("tenant imported",
		zap.String("tenant_id", t.ID.String()),
		zap.String("slug", t.Slug),
		zap.String("status", string(t.Status)),
	)
	return t, nil
}

// optionalTimestamp keeps an unparseable optional date unset instead of
// inventing one.
func optionalTimestamp(v any) *time.Time {
	ts := domain.NormalizeTimestamp(v, time.Time{})
	if ts.IsZero() {
		return nil
	}
	return &ts
}

func importStatus(raw string) domain.Status {
	switch domain.Status(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.StatusActive:
		return domain.StatusActive
	case domain.StatusTrial:
		return domain.StatusTrial
	default:
		return domain.StatusInactive
	}
}

func importRenewalType(raw string) domain.RenewalType {
	switch domain.RenewalType(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.RenewalSemiannual:
		return domain.RenewalSemiannual
	case domain.RenewalAnnual:
		return domain.RenewalAnnual
	case domain.RenewalServiceCount:
		return domain.RenewalServiceCount
	default:
		return domain.RenewalMonthly
	}
}

func importPaymentStatus(raw string) domain.PaymentStatus {
	switch domain.PaymentStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.PaymentPaid:
		return domain.PaymentPaid
	case domain.PaymentOverdue:
		return domain.PaymentOverdue
	default:
		return domain.PaymentPending
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Tenant, error) {
	t, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Tenant{}, err
	}
	if t == nil {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	return *t, nil
}

func (s *Service) GetBySlug(ctx context.Context, tenantSlug string) (domain.Tenant, error) {
	t, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(tenantSlug))
	if err != nil {
		return domain.Tenant{}, err
	}
	if t == nil {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	return *t, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateTenantRequest) (domain.Tenant, error) {
	return s.Mutate(ctx, id, func(t domain.Tenant) (domain.Tenant, []domain.PaymentRecord, error) {
		if name := strings.TrimSpace(req.Name); name != "" {
			t.Name = name
		}
		if email := strings.TrimSpace(req.Email); email != "" {
			t.Email = email
		}
		return t, nil, nil
	})
}

// Deactivate is the explicit administrative off switch. The tenant record is
// kept; only entitlement is revoked.
func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) (domain.Tenant, error) {
	return s.Mutate(ctx, id, func(t domain.Tenant) (domain.Tenant, []domain.PaymentRecord, error) {
		t.Status = domain.StatusInactive
		t.AutoRenewal = false
		return t, nil, nil
	})
}

func (s *Service) ListPayments(ctx context.Context, id snowflake.ID) ([]domain.PaymentRecord, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, s.db, id)
}

// Mutate applies fn under optimistic concurrency: read a fresh snapshot, run
// fn, write with a version check, retry from a fresh read on conflict. Payment
// records returned by fn land in the same transaction as the tenant update so
// a history entry is never persisted without its state transition.
func (s *Service) Mutate(ctx context.Context, id snowflake.ID, fn domain.MutateFunc) (domain.Tenant, error) {
	for attempt := 0; attempt < s.retryLimit; attempt++ {
		current, err := s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return domain.Tenant{}, err
		}
		if current == nil {
			return domain.Tenant{}, domain.ErrTenantNotFound
		}

		next, records, err := fn(*current)
		if err != nil {
			return domain.Tenant{}, err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version
		next.UpdatedAt = s.clock.Now()

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.UpdateVersioned(ctx, tx, &next); err != nil {
				return err
			}
			for i := range records {
				if records[i].ID == 0 {
					records[i].ID = s.genID.Generate()
				}
				records[i].TenantID = next.ID
				if records[i].CreatedAt.IsZero() {
					records[i].CreatedAt = next.UpdatedAt
				}
				if err := s.repo.AppendPayment(ctx, tx, &records[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return domain.Tenant{}, err
		}
		s.log.Debug("tenant update conflict, retrying",
			zap.String("tenant_id", id.String()),
			zap.Int("attempt", attempt+1),
		)
	}
	return domain.Tenant{}, domain.ErrUpdateFailed
}
