package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	"github.com/oldski/sportsfestDashboard-sub002/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const orderColumns = `id, org_id, event_year_id, order_number, total_amount, status,
	fulfillment_status, fulfilled_at, metadata, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, order *domain.Order) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrgID,
		order.EventYearID,
		order.OrderNumber,
		order.TotalAmount,
		order.Status,
		order.FulfillmentStatus,
		order.FulfilledAt,
		order.Metadata,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, conn *gorm.DB, items []domain.OrderItem) error {
	for _, item := range items {
		if err := conn.WithContext(ctx).Exec(
			`INSERT INTO order_items (id, order_id, product_id, product_name, product_type, quantity, unit_price, total_price, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.ProductType,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	return r.find(ctx, conn, id, "")
}

func (r *repo) FindForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	return r.find(ctx, conn, id, db.LockSuffix(conn))
}

func (r *repo) find(ctx context.Context, conn *gorm.DB, id snowflake.ID, lock string) (*domain.Order, error) {
	var order domain.Order
	if err := conn.WithContext(ctx).Raw(
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE id = ?`+lock,
		id,
	).Scan(&order).Error; err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE org_id = ?`
	args := []any{filter.OrgID}
	if filter.EventYearID != 0 {
		query += ` AND event_year_id = ?`
		args = append(args, filter.EventYearID)
	}
	if strings.TrimSpace(string(filter.Status)) != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var orders []domain.Order
	if err := conn.WithContext(ctx).Raw(query, args...).Scan(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) ListItems(ctx context.Context, conn *gorm.DB, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	if err := conn.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, product_name, product_type, quantity, unit_price, total_price, created_at
		 FROM order_items
		 WHERE order_id = ?
		 ORDER BY created_at ASC, id ASC`,
		orderID,
	).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListPayments(ctx context.Context, conn *gorm.DB, orderID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	if err := conn.WithContext(ctx).Raw(
		`SELECT id, order_id, org_id, amount, status, provider_ref, created_at
		 FROM payments
		 WHERE order_id = ?
		 ORDER BY created_at ASC, id ASC`,
		orderID,
	).Scan(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) SumCompletedPayments(ctx context.Context, conn *gorm.DB, orderID snowflake.ID) (int64, error) {
	var total int64
	if err := conn.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM payments
		 WHERE order_id = ? AND status = ?`,
		orderID,
		domain.PaymentStatusCompleted,
	).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// The conflict target repeats the predicate of ux_payments_provider_ref so
// the partial index is inferred. Payments without a ref never conflict.
func (r *repo) InsertPayment(ctx context.Context, conn *gorm.DB, payment *domain.Payment) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`INSERT INTO payments (id, order_id, org_id, amount, status, provider_ref, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (order_id, provider_ref) WHERE provider_ref IS NOT NULL DO NOTHING`,
		payment.ID,
		payment.OrderID,
		payment.OrgID,
		payment.Amount,
		payment.Status,
		payment.ProviderRef,
		payment.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindPaymentByRef(ctx context.Context, conn *gorm.DB, orderID snowflake.ID, providerRef string) (*domain.Payment, error) {
	var payment domain.Payment
	if err := conn.WithContext(ctx).Raw(
		`SELECT id, order_id, org_id, amount, status, provider_ref, created_at
		 FROM payments
		 WHERE order_id = ? AND provider_ref = ?`,
		orderID,
		providerRef,
	).Scan(&payment).Error; err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) UpdateStatus(ctx context.Context, conn *gorm.DB, id snowflake.ID, status domain.OrderStatus, updatedAt time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	).Error
}

func (r *repo) MarkFulfilled(ctx context.Context, conn *gorm.DB, id snowflake.ID, at time.Time, metadata datatypes.JSONMap) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`UPDATE orders
		 SET fulfillment_status = ?, fulfilled_at = ?, metadata = ?, updated_at = ?
		 WHERE id = ? AND fulfillment_status = ?`,
		domain.FulfillmentStatusFulfilled,
		at,
		metadata,
		at,
		id,
		domain.FulfillmentStatusUnfulfilled,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
