package service

import (
	"context"

	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/plan/domain"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const catalogCacheKey = "plan.catalog"

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	cache *gocache.Cache
}

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Cfg  config.Config
	Repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("plan.service"),
		repo:  p.Repo,
		cache: gocache.New(p.Cfg.PlanCacheTTL, 2*p.Cfg.PlanCacheTTL),
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Plan, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	plans := make([]domain.Plan, 0, len(catalog))
	for _, p := range catalog {
		plans = append(plans, p)
	}
	return plans, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Plan, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return domain.Plan{}, err
	}
	plan, ok := catalog.Lookup(id)
	if !ok {
		return domain.Plan{}, domain.ErrPlanNotFound
	}
	return plan, nil
}

// Catalog returns the cached id→plan snapshot, reloading it on expiry. The
// catalog is small, so a full reload per TTL is cheaper than invalidation.
func (s *Service) Catalog(ctx context.Context) (domain.Catalog, error) {
	if cached, ok := s.cache.Get(catalogCacheKey); ok {
		if catalog, ok := cached.(domain.Catalog); ok {
			return catalog, nil
		}
	}

	plans, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	catalog := make(domain.Catalog, len(plans))
	for _, p := range plans {
		catalog[p.ID] = p
	}
	s.cache.Set(catalogCacheKey, catalog, gocache.DefaultExpiration)
	return catalog, nil
}
