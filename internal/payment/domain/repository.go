package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertSession(ctx context.Context, db *gorm.DB, session *CheckoutSession) error
	FindSessionByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*CheckoutSession, error)
	UpdateSessionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status SessionStatus, updatedAt time.Time) error
	ListSessionsByTenant(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]CheckoutSession, error)

	// InsertEvent reports false when the (provider, provider_event_id) pair
	// already exists, without error.
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider string, providerEventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}
