package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
)

type CreateOrderItem struct {
	ProductID snowflake.ID `json:"product_id"`
	Quantity  int          `json:"quantity"`
}

type CreateOrderRequest struct {
	EventYearID snowflake.ID      `json:"event_year_id"`
	Items       []CreateOrderItem `json:"items"`
}

type ListOrdersRequest struct {
	EventYearID snowflake.ID
	Status      string
}

// CancelResult is returned for cancellations; a refused cancellation is not an error.
type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Order   *Order `json:"order,omitempty"`
}

type Service interface {
	Create(ctx context.Context, scope orgcontext.Scope, req CreateOrderRequest) (*OrderDetail, error)
	Get(ctx context.Context, scope orgcontext.Scope, id snowflake.ID) (*OrderDetail, error)
	List(ctx context.Context, scope orgcontext.Scope, req ListOrdersRequest) ([]Order, error)
	Cancel(ctx context.Context, scope orgcontext.Scope, id snowflake.ID) (*CancelResult, error)
}

var (
	ErrNotFound            = errors.New("order_not_found")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidEventYear    = errors.New("invalid_event_year")
	ErrEmptyItems          = errors.New("order_items_required")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrQuantityLimit       = errors.New("quantity_limit_exceeded")
	ErrProductMismatch     = errors.New("product_not_sold_for_event_year")
	ErrInvalidStatus       = errors.New("invalid_order_status")
)
