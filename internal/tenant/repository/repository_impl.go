package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/lubetrack/lubetrack/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, t *domain.Tenant) error {
	return db.WithContext(ctx).Create(t).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tenant, error) {
	var t domain.Tenant
	err := db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := db.WithContext(ctx).First(&t, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	err := db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Order("created_at desc").
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

// UpdateVersioned is the compare-and-swap write backing the read-modify-write
// discipline: the row is only updated when the stored version still matches
// the version the caller read.
func (r *repo) UpdateVersioned(ctx context.Context, db *gorm.DB, t *domain.Tenant) error {
	readVersion := t.Version
	t.Version = readVersion + 1

	result := db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ? AND version = ?", t.ID, readVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(t)
	if result.Error != nil {
		t.Version = readVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		t.Version = readVersion
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *repo) AppendPayment(ctx context.Context, db *gorm.DB, rec *domain.PaymentRecord) error {
	return db.WithContext(ctx).Create(rec).Error
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]domain.PaymentRecord, error) {
	var records []domain.PaymentRecord
	err := db.WithContext(ctx).
		Model(&domain.PaymentRecord{}).
		Where("tenant_id = ?", tenantID).
		Order("paid_at").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
