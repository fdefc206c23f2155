// Package domain defines the oil-change service log.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound = errors.New("service_record_not_found")
	ErrInvalidRecord  = errors.New("invalid_service_record")
)

// ServiceRecord is one performed oil change. Registering a record consumes
// one service credit from the tenant's subscription.
type ServiceRecord struct {
	ID       snowflake.ID `json:"id" gorm:"primaryKey"`
	TenantID snowflake.ID `json:"tenant_id" gorm:"not null;index"`

	LicensePlate string `json:"license_plate" gorm:"type:text;not null;index"`
	VehicleBrand string `json:"vehicle_brand" gorm:"type:text"`
	VehicleModel string `json:"vehicle_model" gorm:"type:text"`

	CustomerName  string `json:"customer_name" gorm:"type:text;not null"`
	CustomerPhone string `json:"customer_phone" gorm:"type:text"`

	Mileage    int    `json:"mileage"`
	OilType    string `json:"oil_type" gorm:"type:text"`
	FilterType string `json:"filter_type" gorm:"type:text"`
	Notes      string `json:"notes" gorm:"type:text"`

	ServiceDate        time.Time  `json:"service_date" gorm:"not null;index"`
	NextServiceDate    *time.Time `json:"next_service_date" gorm:"index"`
	NextServiceMileage int        `json:"next_service_mileage"`

	PerformedBy string `json:"performed_by" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (ServiceRecord) TableName() string { return "service_records" }

// RegisterRequest creates a new record.
type RegisterRequest struct {
	TenantID snowflake.ID `json:"-"`

	LicensePlate string `json:"license_plate" binding:"required"`
	VehicleBrand string `json:"vehicle_brand"`
	VehicleModel string `json:"vehicle_model"`

	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone"`

	Mileage    int    `json:"mileage"`
	OilType    string `json:"oil_type"`
	FilterType string `json:"filter_type"`
	Notes      string `json:"notes"`

	ServiceDate        *time.Time `json:"service_date"`
	NextServiceDate    *time.Time `json:"next_service_date"`
	NextServiceMileage int        `json:"next_service_mileage"`

	PerformedBy string `json:"performed_by"`
}

// UpdateRequest patches an existing record. Nil fields are left untouched.
type UpdateRequest struct {
	LicensePlate  *string `json:"license_plate"`
	VehicleBrand  *string `json:"vehicle_brand"`
	VehicleModel  *string `json:"vehicle_model"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`

	Mileage    *int    `json:"mileage"`
	OilType    *string `json:"oil_type"`
	FilterType *string `json:"filter_type"`
	Notes      *string `json:"notes"`

	NextServiceDate    *time.Time `json:"next_service_date"`
	NextServiceMileage *int       `json:"next_service_mileage"`

	PerformedBy *string `json:"performed_by"`
}

// ListQuery filters the per-tenant log.
type ListQuery struct {
	LicensePlate string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// Dashboard is the per-tenant operational summary.
type Dashboard struct {
	ServicesToday     int64           `json:"services_today"`
	ServicesThisMonth int64           `json:"services_this_month"`
	Upcoming          []ServiceRecord `json:"upcoming"`
}

// Service is the oil-change log boundary.
type Service interface {
	// Register consumes one service credit, then stores the record.
	Register(ctx context.Context, req RegisterRequest) (ServiceRecord, error)
	Get(ctx context.Context, tenantID, recordID snowflake.ID) (ServiceRecord, error)
	List(ctx context.Context, tenantID snowflake.ID, q ListQuery) ([]ServiceRecord, error)
	Update(ctx context.Context, tenantID, recordID snowflake.ID, req UpdateRequest) (ServiceRecord, error)
	Delete(ctx context.Context, tenantID, recordID snowflake.ID) error
	Dashboard(ctx context.Context, tenantID snowflake.ID) (Dashboard, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *ServiceRecord) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, recordID snowflake.ID) (*ServiceRecord, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, q ListQuery) ([]ServiceRecord, error)
	Update(ctx context.Context, db *gorm.DB, record *ServiceRecord) error
	Delete(ctx context.Context, db *gorm.DB, tenantID, recordID snowflake.ID) error
	CountBetween(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, from, to time.Time) (int64, error)
	UpcomingBetween(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, from, to time.Time) ([]ServiceRecord, error)
}
