package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/servicelog/domain"
	subscriptiondomain "github.com/lubetrack/lubetrack/internal/subscription/domain"
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
	Cfg   config.Config
	Repo  domain.Repository

	SubscriptionSvc subscriptiondomain.Service
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           domain.Repository
	upcomingWindow time.Duration

	subscriptionSvc subscriptiondomain.Service
}

func New(p Params) domain.Service {
	windowDays := p.Cfg.UpcomingWindowDays
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("servicelog.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		upcomingWindow:  time.Duration(windowDays) * 24 * time.Hour,
		subscriptionSvc: p.SubscriptionSvc,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.ServiceRecord, error) {
	plate := strings.ToUpper(strings.TrimSpace(req.LicensePlate))
	name := strings.TrimSpace(req.CustomerName)
	if plate == "" || name == "" {
		return domain.ServiceRecord{}, domain.ErrInvalidRecord
	}

	// Consume the credit first. A tenant at its limit must not get a record
	// written, so the entitlement check gates the insert.
	if _, err := s.subscriptionSvc.ConsumeService(ctx, req.TenantID); err != nil {
		return domain.ServiceRecord{}, err
	}

	now := s.clock.Now()
	serviceDate := now
	if req.ServiceDate != nil {
		serviceDate = *req.ServiceDate
	}

	record := domain.ServiceRecord{
		ID:                 s.genID.Generate(),
		TenantID:           req.TenantID,
		LicensePlate:       plate,
		VehicleBrand:       strings.TrimSpace(req.VehicleBrand),
		VehicleModel:       strings.TrimSpace(req.VehicleModel),
		CustomerName:       name,
		CustomerPhone:      strings.TrimSpace(req.CustomerPhone),
		Mileage:            req.Mileage,
		OilType:            strings.TrimSpace(req.OilType),
		FilterType:         strings.TrimSpace(req.FilterType),
		Notes:              req.Notes,
		ServiceDate:        serviceDate,
		NextServiceDate:    req.NextServiceDate,
		NextServiceMileage: req.NextServiceMileage,
		PerformedBy:        strings.TrimSpace(req.PerformedBy),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		// The credit was already consumed. Surface loudly so the mismatch can
		// be reconciled by hand.
		s.log.Error("service record insert failed after credit consumption",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("license_plate", plate),
			zap.Error(err),
		)
		return domain.ServiceRecord{}, err
	}

	s.log.Info("service registered",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("record_id", record.ID.String()),
		zap.String("license_plate", plate),
	)
	return record, nil
}

func (s *Service) Get(ctx context.Context, tenantID, recordID snowflake.ID) (domain.ServiceRecord, error) {
	record, err := s.repo.FindByID(ctx, s.db, tenantID, recordID)
	if err != nil {
		return domain.ServiceRecord{}, err
	}
	if record == nil {
		return domain.ServiceRecord{}, domain.ErrRecordNotFound
	}
	return *record, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, q domain.ListQuery) ([]domain.ServiceRecord, error) {
	if q.LicensePlate != "" {
		q.LicensePlate = strings.ToUpper(strings.TrimSpace(q.LicensePlate))
	}
	return s.repo.List(ctx, s.db, tenantID, q)
}

func (s *Service) Update(ctx context.Context, tenantID, recordID snowflake.ID, req domain.UpdateRequest) (domain.ServiceRecord, error) {
	record, err := s.repo.FindByID(ctx, s.db, tenantID, recordID)
	if err != nil {
		return domain.ServiceRecord{}, err
	}
	if record == nil {
		return domain.ServiceRecord{}, domain.ErrRecordNotFound
	}

	applyUpdate(record, req)
	record.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, record); err != nil {
		return domain.ServiceRecord{}, err
	}
	return *record, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, recordID snowflake.ID) error {
	return s.repo.Delete(ctx, s.db, tenantID, recordID)
}

func (s *Service) Dashboard(ctx context.Context, tenantID snowflake.ID) (domain.Dashboard, error) {
	now := s.clock.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	today, err := s.repo.CountBetween(ctx, s.db, tenantID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return domain.Dashboard{}, err
	}
	thisMonth, err := s.repo.CountBetween(ctx, s.db, tenantID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return domain.Dashboard{}, err
	}
	upcoming, err := s.repo.UpcomingBetween(ctx, s.db, tenantID, now, now.Add(s.upcomingWindow))
	if err != nil {
		return domain.Dashboard{}, err
	}

	return domain.Dashboard{
		ServicesToday:     today,
		ServicesThisMonth: thisMonth,
		Upcoming:          upcoming,
	}, nil
}

func applyUpdate(record *domain.ServiceRecord, req domain.UpdateRequest) {
	if req.LicensePlate != nil {
		record.LicensePlate = strings.ToUpper(strings.TrimSpace(*req.LicensePlate))
	}
	if req.VehicleBrand != nil {
		record.VehicleBrand = strings.TrimSpace(*req.VehicleBrand)
	}
	if req.VehicleModel != nil {
		record.VehicleModel = strings.TrimSpace(*req.VehicleModel)
	}
	if req.CustomerName != nil {
		record.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerPhone != nil {
		record.CustomerPhone = strings.TrimSpace(*req.CustomerPhone)
	}
	if req.Mileage != nil {
		record.Mileage = *req.Mileage
	}
	if req.OilType != nil {
		record.OilType = strings.TrimSpace(*req.OilType)
	}
	if req.FilterType != nil {
		record.FilterType = strings.TrimSpace(*req.FilterType)
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	if req.NextServiceDate != nil {
		record.NextServiceDate = req.NextServiceDate
	}
	if req.NextServiceMileage != nil {
		record.NextServiceMileage = *req.NextServiceMileage
	}
	if req.PerformedBy != nil {
		record.PerformedBy = strings.TrimSpace(*req.PerformedBy)
	}
}
