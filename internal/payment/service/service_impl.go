package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/payment/adapters"
	paymentdomain "github.com/lubetrack/lubetrack/internal/payment/domain"
	plandomain "github.com/lubetrack/lubetrack/internal/plan/domain"
	subscriptiondomain "github.com/lubetrack/lubetrack/internal/subscription/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultProvider = "midtrans"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Adapters *adapters.Registry
	Repo     paymentdomain.Repository

	TenantSvc       tenantdomain.Service
	PlanSvc         plandomain.Service
	SubscriptionSvc subscriptiondomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	adapters   *adapters.Registry
	adapterCfg paymentdomain.AdapterConfig
	repo       paymentdomain.Repository

	tenantSvc       tenantdomain.Service
	planSvc         plandomain.Service
	subscriptionSvc subscriptiondomain.Service
}

func New(p Params) paymentdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("payment.service"),
		genID: p.GenID,
		clock: p.Clock,

		adapters: p.Adapters,
		adapterCfg: paymentdomain.AdapterConfig{
			ServerKey:  p.Cfg.MidtransServerKey,
			Production: p.Cfg.MidtransProduction,
			FinishURL:  p.Cfg.CheckoutFinishURL,
		},
		repo: p.Repo,

		tenantSvc:       p.TenantSvc,
		planSvc:         p.PlanSvc,
		subscriptionSvc: p.SubscriptionSvc,
	}
}

func (s *Service) CreateSession(ctx context.Context, req paymentdomain.CreateSessionRequest) (paymentdomain.CheckoutSession, error) {
	t, err := s.tenantSvc.Get(ctx, req.TenantID)
	if err != nil {
		return paymentdomain.CheckoutSession{}, err
	}
	plan, err := s.planSvc.Get(ctx, req.PlanID)
	if err != nil {
		return paymentdomain.CheckoutSession{}, err
	}

	billingType := req.BillingType
	if billingType == "" {
		billingType = tenantdomain.BillingMonthly
	}
	amount := planAmount(plan, billingType)

	adapter, err := s.adapters.NewAdapter(defaultProvider, s.adapterCfg)
	if err != nil {
		return paymentdomain.CheckoutSession{}, err
	}

	now := s.clock.Now()
	session := paymentdomain.CheckoutSession{
		ID:          s.genID.Generate(),
		OrderID:     uuid.NewString(),
		TenantID:    t.ID,
		PlanID:      plan.ID,
		BillingType: billingType,
		Amount:      amount,
		Status:      paymentdomain.SessionCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	redirectURL, err := adapter.CreateSession(ctx, paymentdomain.SessionDetails{
		OrderID:     session.OrderID,
		Amount:      amount,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		TenantName:  t.Name,
		TenantEmail: t.Email,
	})
	if err != nil {
		return paymentdomain.CheckoutSession{}, err
	}
	session.RedirectURL = redirectURL

	if err := s.repo.InsertSession(ctx, s.db, &session); err != nil {
		return paymentdomain.CheckoutSession{}, err
	}

	s.log.Info("checkout session created",
		zap.String("order_id", session.OrderID),
		zap.String("tenant_id", t.ID.String()),
		zap.String("plan_id", plan.ID),
	)
	return session, nil
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if !s.adapters.ProviderExists(provider) {
		return paymentdomain.ErrProviderNotFound
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}

	adapter, err := s.adapters.NewAdapter(provider, s.adapterCfg)
	if err != nil {
		return err
	}
	if err := adapter.Verify(ctx, payload, headers); err != nil {
		return err
	}
	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			return nil
		}
		return err
	}

	now := s.clock.Now()
	received := paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		OrderID:         event.OrderID,
		EventType:       event.Type,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			return paymentdomain.ErrEventAlreadyProcessed
		}
	}

	if err := s.processEvent(ctx, event); err != nil {
		return err
	}

	return s.repo.MarkProcessed(ctx, s.db, stored.ID, s.clock.Now())
}

func (s *Service) processEvent(ctx context.Context, event *paymentdomain.PaymentEvent) error {
	session, err := s.repo.FindSessionByOrderID(ctx, s.db, event.OrderID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: order %q", paymentdomain.ErrSessionNotFound, event.OrderID)
	}

	switch event.Type {
	case paymentdomain.EventTypePaymentApproved:
		_, err := s.subscriptionSvc.ApplyPayment(ctx, session.TenantID, subscriptiondomain.Payment{
			ID:                event.ProviderEventID,
			Status:            subscriptiondomain.PaymentStatusApproved,
			PlanID:            session.PlanID,
			BillingType:       session.BillingType,
			ExternalReference: event.OrderID,
			Method:            event.Method,
		})
		if err != nil {
			return err
		}
		return s.repo.UpdateSessionStatus(ctx, s.db, session.ID, paymentdomain.SessionCompleted, s.clock.Now())

	case paymentdomain.EventTypePaymentDeclined:
		s.log.Info("payment declined",
			zap.String("order_id", event.OrderID),
			zap.String("tenant_id", session.TenantID.String()),
		)
		return s.repo.UpdateSessionStatus(ctx, s.db, session.ID, paymentdomain.SessionFailed, s.clock.Now())

	case paymentdomain.EventTypePaymentPending:
		// Recorded for dedup, nothing to apply yet.
		return nil

	default:
		return paymentdomain.ErrInvalidEvent
	}
}

// CancelSubscription stops future renewals. Access already paid for is kept
// until the current period ends; the expiry sweep deactivates the tenant then.
func (s *Service) CancelSubscription(ctx context.Context, tenantID snowflake.ID) (bool, error) {
	canceled := false
	_, err := s.tenantSvc.Mutate(ctx, tenantID, func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
		canceled = t.AutoRenewal
		t.AutoRenewal = false
		return t, nil, nil
	})
	if err != nil {
		return false, err
	}
	if canceled {
		s.log.Info("auto renewal disabled", zap.String("tenant_id", tenantID.String()))
	}
	return canceled, nil
}

func planAmount(plan plandomain.Plan, billingType tenantdomain.BillingType) int64 {
	if plan.PlanType == plandomain.PlanTypeServiceCount {
		return plan.ServicePrice
	}
	if billingType == tenantdomain.BillingSemiannual {
		return plan.PriceSemiannual
	}
	return plan.PriceMonthly
}
