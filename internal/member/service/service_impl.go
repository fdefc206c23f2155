package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/member/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository

	TenantSvc tenantdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	tenantSvc tenantdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("member.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		tenantSvc: p.TenantSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateMemberRequest) (domain.Member, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Member{}, domain.ErrInvalidMember
	}
	// Tenant must exist before a seat is attached to it.
	if _, err := s.tenantSvc.Get(ctx, req.TenantID); err != nil {
		return domain.Member{}, err
	}

	now := s.clock.Now()
	member := domain.Member{
		ID:        s.genID.Generate(),
		TenantID:  req.TenantID,
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Role:      strings.TrimSpace(req.Role),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &member); err != nil {
		return domain.Member{}, err
	}

	if err := s.syncActiveCount(ctx, req.TenantID); err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID) ([]domain.Member, error) {
	return s.repo.List(ctx, s.db, tenantID)
}

func (s *Service) Deactivate(ctx context.Context, tenantID, memberID snowflake.ID) (domain.Member, error) {
	return s.setActive(ctx, tenantID, memberID, false)
}

func (s *Service) Activate(ctx context.Context, tenantID, memberID snowflake.ID) (domain.Member, error) {
	return s.setActive(ctx, tenantID, memberID, true)
}

func (s *Service) setActive(ctx context.Context, tenantID, memberID snowflake.ID, active bool) (domain.Member, error) {
	if err := s.repo.SetActive(ctx, s.db, tenantID, memberID, active, s.clock.Now()); err != nil {
		return domain.Member{}, err
	}
	if err := s.syncActiveCount(ctx, tenantID); err != nil {
		return domain.Member{}, err
	}

	member, err := s.repo.FindByID(ctx, s.db, tenantID, memberID)
	if err != nil {
		return domain.Member{}, err
	}
	if member == nil {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	return *member, nil
}

// syncActiveCount recomputes the tenant's active seat count from the member
// table. The count is advisory on the tenant row; seat limits are enforced at
// plan-change time against this number.
func (s *Service) syncActiveCount(ctx context.Context, tenantID snowflake.ID) error {
	count, err := s.repo.CountActive(ctx, s.db, tenantID)
	if err != nil {
		return err
	}
	_, err = s.tenantSvc.Mutate(ctx, tenantID, func(t tenantdomain.Tenant) (tenantdomain.Tenant, []tenantdomain.PaymentRecord, error) {
		t.ActiveUserCount = int(count)
		return t, nil, nil
	})
	return err
}
