package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ListFilter struct {
	OrgID       snowflake.ID
	EventYearID snowflake.ID
	Status      OrderStatus
}

// Repository methods take the handle to run on so callers can pass a
// transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	// FindForUpdate loads the order and row-locks it for the transaction.
	FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Order, error)
	ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	ListPayments(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]Payment, error)
	SumCompletedPayments(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (int64, error)
	// InsertPayment returns false when a payment with the same provider
	// reference already exists for the order.
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) (bool, error)
	FindPaymentByRef(ctx context.Context, db *gorm.DB, orderID snowflake.ID, providerRef string) (*Payment, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status OrderStatus, updatedAt time.Time) error
	// MarkFulfilled flips the fulfillment flag only if it is still unfulfilled
	// and reports whether it did.
	MarkFulfilled(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, metadata datatypes.JSONMap) (bool, error)
}
