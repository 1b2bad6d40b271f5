package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
)

// Result is returned for every fulfillment attempt. Refusals such as an
// already fulfilled order or a tent quota failure are results, not errors.
type Result struct {
	Success          bool         `json:"success"`
	Message          string       `json:"message"`
	OrderID          snowflake.ID `json:"order_id"`
	AlreadyFulfilled bool         `json:"already_fulfilled,omitempty"`
	TeamsCreated     []string     `json:"teams_created,omitempty"`
	TentsTracked     int          `json:"tents_tracked,omitempty"`
}

type Service interface {
	Fulfill(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID) (*Result, error)
}

var (
	ErrUnknownProductType = errors.New("unknown_product_type")
	ErrFulfillmentRace    = errors.New("fulfillment_race")
	ErrConcurrentUpdate   = errors.New("fulfillment_concurrent_update")
)
