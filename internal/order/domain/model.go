package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/oldski/sportsfestDashboard-sub002/internal/product/domain"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPartialPayment OrderStatus = "partial_payment"
	OrderStatusFullyPaid      OrderStatus = "fully_paid"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// ParseOrderStatus maps stored values onto OrderStatus. "deposit_paid" is the
// older spelling of partial_payment.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return OrderStatusPending, true
	case "partial_payment", "deposit_paid":
		return OrderStatusPartialPayment, true
	case "fully_paid":
		return OrderStatusFullyPaid, true
	case "cancelled", "canceled":
		return OrderStatusCancelled, true
	case "refunded":
		return OrderStatusRefunded, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether moving to next keeps the lifecycle
// monotonic. Re-asserting the current status is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusPartialPayment || next == OrderStatusFullyPaid || next == OrderStatusCancelled
	case OrderStatusPartialPayment:
		return next == OrderStatusFullyPaid || next == OrderStatusCancelled || next == OrderStatusRefunded
	case OrderStatusFullyPaid:
		return next == OrderStatusRefunded
	default:
		return false
	}
}

// Closed reports whether the order no longer accepts payments.
func (s OrderStatus) Closed() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

type FulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentStatusFulfilled   FulfillmentStatus = "fulfilled"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

type Order struct {
	ID                snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID             snowflake.ID      `json:"org_id" gorm:"column:org_id;not null;index"`
	EventYearID       snowflake.ID      `json:"event_year_id" gorm:"not null"`
	OrderNumber       string            `json:"order_number" gorm:"type:text;not null;uniqueIndex"`
	TotalAmount       int64             `json:"total_amount" gorm:"not null"`
	Status            OrderStatus       `json:"status" gorm:"type:text;not null"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status" gorm:"type:text;not null"`
	FulfilledAt       *time.Time        `json:"fulfilled_at,omitempty"`
	Metadata          datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// Fulfilled is the single source of truth for fulfillment re-entry.
func (o Order) Fulfilled() bool {
	return o.FulfillmentStatus == FulfillmentStatusFulfilled
}

type OrderItem struct {
	ID          snowflake.ID              `json:"id" gorm:"primaryKey"`
	OrderID     snowflake.ID              `json:"order_id" gorm:"not null;index"`
	ProductID   snowflake.ID              `json:"product_id" gorm:"not null"`
	ProductName string                    `json:"product_name" gorm:"type:text"`
	ProductType productdomain.ProductType `json:"product_type" gorm:"type:text;not null"`
	Quantity    int                       `json:"quantity" gorm:"not null"`
	UnitPrice   int64                     `json:"unit_price" gorm:"not null"`
	TotalPrice  int64                     `json:"total_price" gorm:"not null"`
	CreatedAt   time.Time                 `json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }

type Payment struct {
	ID          snowflake.ID  `json:"id" gorm:"primaryKey"`
	OrderID     snowflake.ID  `json:"order_id" gorm:"not null;index"`
	OrgID       snowflake.ID  `json:"org_id" gorm:"column:org_id;not null"`
	Amount      int64         `json:"amount" gorm:"not null"`
	Status      PaymentStatus `json:"status" gorm:"type:text;not null"`
	ProviderRef *string       `json:"provider_ref,omitempty" gorm:"type:text"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

// OrderDetail is an order with its ledger lines and derived totals.
type OrderDetail struct {
	Order
	Items            []OrderItem `json:"items"`
	Payments         []Payment   `json:"payments"`
	TotalPaid        int64       `json:"total_paid"`
	BalanceRemaining int64       `json:"balance_remaining"`
}

// SumCompleted totals the completed payments.
func SumCompleted(payments []Payment) int64 {
	var total int64
	for _, p := range payments {
		if p.Status == PaymentStatusCompleted {
			total += p.Amount
		}
	}
	return total
}
