package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, db *gorm.DB) ([]Plan, error)
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Plan, error)
}
