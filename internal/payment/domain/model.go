package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	fulfillmentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment/domain"
	orderdomain "github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventRecord is an upstream payment notification, kept so redelivered
// notifications are processed once.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	OrgID           snowflake.ID   `json:"org_id" gorm:"not null;index"`
	OrderID         snowflake.ID   `json:"order_id" gorm:"not null;index"`
	Provider        string         `json:"provider" gorm:"type:text;not null"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "payment_events" }

// Notification says the payments of an order changed. The payload is kept
// as received and never interpreted here.
type Notification struct {
	Provider        string `json:"provider"`
	ProviderEventID string `json:"provider_event_id"`
	Payload         []byte `json:"-"`
}

type RecordPaymentRequest struct {
	OrderID     snowflake.ID `json:"-"`
	Amount      int64        `json:"amount"`
	Status      string       `json:"status"`
	ProviderRef string       `json:"provider_ref"`
}

type RecordPaymentResult struct {
	Success        bool                 `json:"success"`
	Message        string               `json:"message"`
	Duplicate      bool                 `json:"duplicate,omitempty"`
	Payment        *orderdomain.Payment `json:"payment,omitempty"`
	Reconciliation *ReconcileResult     `json:"reconciliation,omitempty"`
}

type ReconcileResult struct {
	Success          bool                      `json:"success"`
	Message          string                    `json:"message"`
	OrderID          snowflake.ID              `json:"order_id"`
	Status           orderdomain.OrderStatus   `json:"status"`
	TotalPaid        int64                     `json:"total_paid"`
	BalanceRemaining int64                     `json:"balance_remaining"`
	Fulfillment      *fulfillmentdomain.Result `json:"fulfillment,omitempty"`
}

type Repository interface {
	FindEvent(ctx context.Context, db *gorm.DB, provider string, providerEventID string) (*EventRecord, error)
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}

type Service interface {
	// RecordPayment appends a payment to the ledger and reconciles the order
	// when the payment is completed.
	RecordPayment(ctx context.Context, scope orgcontext.Scope, req RecordPaymentRequest) (*RecordPaymentResult, error)
	Reconcile(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID) (*ReconcileResult, error)
	HandleNotification(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID, n Notification) (*ReconcileResult, error)
}

var (
	ErrInvalidAmount   = errors.New("invalid_payment_amount")
	ErrInvalidStatus   = errors.New("invalid_payment_status")
	ErrOverpayment     = errors.New("payment_exceeds_balance")
	ErrInvalidEvent    = errors.New("invalid_payment_event")
	ErrInvalidProvider = errors.New("invalid_payment_provider")
	ErrInvalidPayload  = errors.New("invalid_payment_payload")
)
