// Package domain defines per-tenant staff members. The count of active
// members is what plan seat limits are enforced against.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrMemberNotFound = errors.New("member_not_found")
	ErrInvalidMember  = errors.New("invalid_member")
)

type Member struct {
	ID       snowflake.ID `json:"id" gorm:"primaryKey"`
	TenantID snowflake.ID `json:"tenant_id" gorm:"not null;index"`
	Name     string       `json:"name" gorm:"type:text;not null"`
	Email    string       `json:"email" gorm:"type:text"`
	Role     string       `json:"role" gorm:"type:text"`
	IsActive bool         `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }

type CreateMemberRequest struct {
	TenantID snowflake.ID `json:"-"`
	Name     string       `json:"name" binding:"required"`
	Email    string       `json:"email"`
	Role     string       `json:"role"`
}

type Service interface {
	Create(ctx context.Context, req CreateMemberRequest) (Member, error)
	List(ctx context.Context, tenantID snowflake.ID) ([]Member, error)
	// Deactivate keeps the row for history and recomputes the tenant's
	// active user count.
	Deactivate(ctx context.Context, tenantID, memberID snowflake.ID) (Member, error)
	Activate(ctx context.Context, tenantID, memberID snowflake.ID) (Member, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, member *Member) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, memberID snowflake.ID) (*Member, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]Member, error)
	SetActive(ctx context.Context, db *gorm.DB, tenantID, memberID snowflake.ID, active bool, updatedAt time.Time) error
	CountActive(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (int64, error)
}
