package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/config"
	plandomain "github.com/lubetrack/lubetrack/internal/plan/domain"
	subscriptiondomain "github.com/lubetrack/lubetrack/internal/subscription/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log    *zap.Logger
	clock  clock.Clock
	policy subscriptiondomain.TrialPolicy

	tenantSvc tenantdomain.Service
	planSvc   plandomain.Service
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Cfg       config.Config
	TenantSvc tenantdomain.Service
	PlanSvc   plandomain.Service
}

func New(p Params) subscriptiondomain.Service {
	policy := subscriptiondomain.DefaultTrialPolicy()
	if p.Cfg.TrialDays > 0 {
		policy.Days = p.Cfg.TrialDays
	}
	if p.Cfg.TrialServiceLimit > 0 {
		policy.ServiceLimit = p.Cfg.TrialServiceLimit
	}
	return &Service{
		log:       p.Log.Named("subscription.service"),
		clock:     p.Clock,
		policy:    policy,
		tenantSvc: p.TenantSvc,
		planSvc:   p.PlanSvc,
	}
}

func (s *Service) Entitlement(ctx context.Context, tenantID snowflake.ID) (subscriptiondomain.Entitlement, error) {
	t, err := s.tenantSvc.Get(ctx, tenantID)
	if err != nil {
		return subscriptiondomain.Entitlement{}, err
	}
	catalog, err := s.planSvc.Catalog(ctx)
	if err != nil {
		return subscriptiondomain.Entitlement{}, err
	}

	ent := subscriptiondomain.ResolveEntitlement(t, catalog, s.policy, s.clock.Now())
	if ent.CatalogMissing {
		s.log.Warn("entitlement resolved without catalog entry, failing open",
			zap.String("tenant_id", t.ID.String()),
			zap.String("plan_id", t.PlanID),
		)
	}
	return ent, nil
}

func (s *Service) TrialState(ctx context.Context, tenantID snowflake.ID) (subscriptiondomain.TrialState, error) {
	t, err := s.tenantSvc.Get(ctx, tenantID)
	if err != nil {
		return subscriptiondomain.TrialState{}, err
	}
	return s.policy.State(t, s.clock.Now()), nil
}

func (s *Service) RequestPlanChange(ctx context.Context, tenantID snowflake.ID, newPlanID string, billingType tenantdomain.BillingType) (tenantdomain.Tenant, error) {
	catalog, err := s.planSvc.Catalog(ctx)
	if err != nil {
		return tenantdomain.Tenant{}, err
	}
	return s.tenantSvc.Mutate(ctx, tenantID, func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
		next, err := subscriptiondomain.RequestPlanChange(t, catalog, newPlanID, billingType)
		return next, nil, err
	})
}

func (s *Service) PurchaseCredits(ctx context.Context, tenantID snowflake.ID, additionalCount int) (tenantdomain.Tenant, error) {
	return s.tenantSvc.Mutate(ctx, tenantID, func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
		next, err := subscriptiondomain.PurchaseAdditionalServices(t, additionalCount, s.clock.Now())
		return next, nil, err
	})
}

func (s *Service) CreditEligibility(ctx context.Context, tenantID snowflake.ID) (subscriptiondomain.Eligibility, error) {
	t, err := s.tenantSvc.Get(ctx, tenantID)
	if err != nil {
		return subscriptiondomain.Eligibility{}, err
	}
	return subscriptiondomain.CanPurchaseMoreServices(t, s.clock.Now()), nil
}

func (s *Service) Renew(ctx context.Context, tenantID snowflake.ID, newTotalServices int, resetUsageCounters bool) (tenantdomain.Tenant, error) {
	return s.tenantSvc.Mutate(ctx, tenantID, func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
		return subscriptiondomain.RenewPlan(t, newTotalServices, resetUsageCounters, s.clock.Now()), nil, nil
	})
}

func (s *Service) ApplyPayment(ctx context.Context, tenantID snowflake.ID, payment subscriptiondomain.Payment) (tenantdomain.Tenant, error) {
	catalog, err := s.planSvc.Catalog(ctx)
	if err != nil {
		return tenantdomain.Tenant{}, err
	}
	updated, err := s.tenantSvc.Mutate(ctx, tenantID, func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
		next, rec, err := subscriptiondomain.ApplyApprovedPayment(t, catalog, payment, s.clock.Now())
		if err != nil {
			return t, nil, err
		}
		return next, []tenantdomain.PaymentRecord{rec}, nil
	})
	if err != nil {
		return tenantdomain.Tenant{}, err
	}
	s.log.Info("payment applied",
		zap.String("tenant_id", updated.ID.String()),
		zap.String("plan_id", updated.PlanID),
		zap.String("external_reference", payment.ExternalReference),
	)
	return updated, nil
}

func (s *Service) ConsumeService(ctx context.Context, tenantID snowflake.ID) (tenantdomain.Tenant, error) {
	catalog, err := s.planSvc.Catalog(ctx)
	if err != nil {
		return tenantdomain.Tenant{}, err
	}
	return s.tenantSvc.Mutate(ctx, tenantID, func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
		next, err := subscriptiondomain.ConsumeService(t, catalog, s.policy, s.clock.Now())
		return next, nil, err
	})
}
