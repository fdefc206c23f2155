// Package domain contains the payment gateway contract: checkout sessions,
// canonical gateway events, and the webhook dedup ledger.
package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"gorm.io/datatypes"
)

var (
	ErrInvalidProvider       = errors.New("invalid_provider")
	ErrProviderNotFound      = errors.New("provider_not_found")
	ErrInvalidConfig         = errors.New("invalid_provider_config")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrSessionNotFound       = errors.New("checkout_session_not_found")
)

// CheckoutSession records one hosted-checkout attempt. The order id is the
// external reference the gateway echoes back in its webhook, which is how a
// completed payment is tied back to a tenant and plan.
type CheckoutSession struct {
	ID          snowflake.ID             `json:"id" gorm:"primaryKey"`
	OrderID     string                   `json:"order_id" gorm:"type:text;not null;uniqueIndex"`
	TenantID    snowflake.ID             `json:"tenant_id" gorm:"not null;index"`
	PlanID      string                   `json:"plan_id" gorm:"type:text;not null"`
	BillingType tenantdomain.BillingType `json:"billing_type" gorm:"type:text;not null"`
	Amount      int64                    `json:"amount" gorm:"not null"`
	RedirectURL string                   `json:"redirect_url" gorm:"type:text"`
	Status      SessionStatus            `json:"status" gorm:"type:text;not null"`
	CreatedAt   time.Time                `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time                `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (CheckoutSession) TableName() string { return "checkout_sessions" }

type SessionStatus string

const (
	SessionCreated   SessionStatus = "created"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// EventRecord is the webhook dedup ledger. The unique (provider,
// provider_event_id) pair makes duplicate gateway deliveries at-most-once.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null;uniqueIndex:idx_payment_events_provider_event,priority:1"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex:idx_payment_events_provider_event,priority:2"`
	OrderID         string         `json:"order_id" gorm:"type:text;not null;index"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "payment_events" }

const (
	EventTypePaymentApproved = "payment_approved"
	EventTypePaymentDeclined = "payment_declined"
	EventTypePaymentPending  = "payment_pending"
)

// PaymentEvent is the canonical gateway event parsed by adapters.
type PaymentEvent struct {
	Provider        string
	ProviderEventID string
	OrderID         string
	Type            string
	Method          string
	GrossAmount     int64
	OccurredAt      time.Time
	RawPayload      []byte
}

// CreateSessionRequest starts a hosted checkout for a plan purchase.
type CreateSessionRequest struct {
	TenantID    snowflake.ID
	PlanID      string
	BillingType tenantdomain.BillingType
}

// SessionDetails is what the adapter needs to open a hosted checkout page.
type SessionDetails struct {
	OrderID     string
	Amount      int64
	PlanID      string
	PlanName    string
	TenantName  string
	TenantEmail string
}

// PaymentAdapter is one configured gateway integration.
type PaymentAdapter interface {
	// CreateSession opens a hosted checkout and returns the redirect URL.
	CreateSession(ctx context.Context, details SessionDetails) (redirectURL string, err error)
	// Verify authenticates a webhook delivery before it is parsed.
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	// Parse converts a verified webhook payload into a canonical event.
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}

// AdapterConfig configures a provider adapter instance.
type AdapterConfig struct {
	ServerKey  string
	Production bool
	FinishURL  string
}

// AdapterFactory builds adapters for one provider.
type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (PaymentAdapter, error)
}

// Service is the payment boundary consumed by the HTTP layer.
type Service interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (CheckoutSession, error)
	// IngestWebhook verifies, dedups, and applies one gateway notification.
	// Duplicate deliveries of an already-processed event return
	// ErrEventAlreadyProcessed, which callers treat as success.
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
	// CancelSubscription turns off auto-renewal for the tenant and reports
	// whether a cancellation took place.
	CancelSubscription(ctx context.Context, tenantID snowflake.ID) (bool, error)
}
