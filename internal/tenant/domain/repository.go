package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, t *Tenant) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tenant, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Tenant, error)
	List(ctx context.Context, db *gorm.DB) ([]Tenant, error)
	// UpdateVersioned writes t only if the stored version still matches
	// t.Version, bumping it by one. Returns ErrVersionConflict otherwise.
	UpdateVersioned(ctx context.Context, db *gorm.DB, t *Tenant) error
	AppendPayment(ctx context.Context, db *gorm.DB, rec *PaymentRecord) error
	ListPayments(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]PaymentRecord, error)
}
