package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lubetrack/lubetrack/internal/servicelog/domain"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.ServiceRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, recordID snowflake.ID) (*domain.ServiceRecord, error) {
	var item domain.ServiceRecord
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, recordID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, q domain.ListQuery) ([]domain.ServiceRecord, error) {
	tx := db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q.LicensePlate != "" {
		tx = tx.Where("license_plate = ?", q.LicensePlate)
	}
	if q.From != nil {
		tx = tx.Where("service_date >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("service_date < ?", *q.To)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var items []domain.ServiceRecord
	err := tx.Order("service_date DESC").
		Limit(limit).
		Offset(q.Offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, record *domain.ServiceRecord) error {
	return db.WithContext(ctx).
		Model(&domain.ServiceRecord{}).
		Where("tenant_id = ? AND id = ?", record.TenantID, record.ID).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(record).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, recordID snowflake.ID) error {
	res := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, recordID).
		Delete(&domain.ServiceRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *repo) CountBetween(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, from, to time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ServiceRecord{}).
		Where("tenant_id = ? AND service_date >= ? AND service_date < ?", tenantID, from, to).
		Count(&count).Error
	return count, err
}

func (r *repo) UpcomingBetween(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, from, to time.Time) ([]domain.ServiceRecord, error) {
	var items []domain.ServiceRecord
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND next_service_date IS NOT NULL AND next_service_date >= ? AND next_service_date < ?",
			tenantID, from, to).
		Order("next_service_date ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
