package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	midtranssdk "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	paymentdomain "github.com/lubetrack/lubetrack/internal/payment/domain"
)

const ProviderName = "midtrans"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return ProviderName
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.PaymentAdapter, error) {
	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}

	env := midtranssdk.Sandbox
	if cfg.Production {
		env = midtranssdk.Production
	}

	var client snap.Client
	client.New(serverKey, env)

	return &Adapter{
		client:    client,
		serverKey: serverKey,
		finishURL: strings.TrimSpace(cfg.FinishURL),
	}, nil
}

type Adapter struct {
	client    snap.Client
	serverKey string
	finishURL string
}

func (a *Adapter) CreateSession(ctx context.Context, details paymentdomain.SessionDetails) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtranssdk.TransactionDetails{
			OrderID:  details.OrderID,
			GrossAmt: details.Amount,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Items: &[]midtranssdk.ItemDetails{
			{
				ID:    details.PlanID,
				Price: details.Amount,
				Qty:   1,
				Name:  details.PlanName,
			},
		},
		CustomerDetail: &midtranssdk.CustomerDetails{
			FName: details.TenantName,
			Email: details.TenantEmail,
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}
	if a.finishURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: a.finishURL}
	}

	resp, snapErr := a.client.CreateTransaction(req)
	if snapErr != nil {
		return "", fmt.Errorf("midtrans snap: %v", snapErr.GetMessage())
	}
	return resp.RedirectURL, nil
}

// notification is the subset of the Midtrans HTTP notification body the
// adapter needs. Gross amount arrives as a decimal string like "150000.00".
type notification struct {
	TransactionID     string `json:"transaction_id"`
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
}

// Verify checks the embedded signature key:
// sha512(order_id + status_code + gross_amount + server_key).
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return paymentdomain.ErrInvalidPayload
	}
	if n.SignatureKey == "" {
		return paymentdomain.ErrInvalidSignature
	}

	input := n.OrderID + n.StatusCode + n.GrossAmount + a.serverKey
	expected := fmt.Sprintf("%x", sha512.Sum512([]byte(input)))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) != 1 {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(n.OrderID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	eventID := strings.TrimSpace(n.TransactionID)
	if eventID == "" {
		// Retries of the same transaction reuse the same status, so the
		// composite still dedups correctly.
		eventID = n.OrderID + ":" + n.TransactionStatus
	}

	var eventType string
	switch strings.TrimSpace(n.TransactionStatus) {
	case "capture", "settlement":
		if strings.TrimSpace(n.FraudStatus) == "challenge" {
			return nil, paymentdomain.ErrEventIgnored
		}
		eventType = paymentdomain.EventTypePaymentApproved
	case "deny", "cancel", "expire", "failure":
		eventType = paymentdomain.EventTypePaymentDeclined
	case "pending":
		eventType = paymentdomain.EventTypePaymentPending
	default:
		return nil, paymentdomain.ErrEventIgnored
	}

	return &paymentdomain.PaymentEvent{
		Provider:        ProviderName,
		ProviderEventID: eventID,
		OrderID:         n.OrderID,
		Type:            eventType,
		Method:          strings.TrimSpace(n.PaymentType),
		GrossAmount:     parseGrossAmount(n.GrossAmount),
		OccurredAt:      parseTransactionTime(n.TransactionTime),
		RawPayload:      payload,
	}, nil
}

func parseGrossAmount(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

func parseTransactionTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	// Midtrans sends Jakarta local time without an offset.
	ts, err := time.Parse("2006-01-02 15:04:05", raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
