package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	paymentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/payment/domain"
)

const maxNotificationBytes = 1 << 20

type listOrdersQuery struct {
	EventYearID string `form:"event_year_id"`
	Status      string `form:"status"`
}

func (s *Server) ListOrders(c *gin.Context) {
	var query listOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	eventYearID, err := parseOptionalSnowflakeID(query.EventYearID)
	if err != nil {
		AbortWithError(c, newValidationError("event_year_id", "invalid_event_year_id", "invalid event year id"))
		return
	}

	req := orderdomain.ListOrdersRequest{Status: strings.TrimSpace(query.Status)}
	if eventYearID != nil {
		req.EventYearID = *eventYearID
	}

	orders, err := s.orderSvc.List(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderdomain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
}

func (s *Server) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := s.orderSvc.Get(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

func (s *Server) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := s.orderSvc.Cancel(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, res.Order)
}

func (s *Server) RecordPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req paymentdomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrderID = id

	res, err := s.paymentSvc.RecordPayment(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, res)
}

func (s *Server) ReconcileOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := s.paymentSvc.Reconcile(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, res)
}

// HandlePaymentNotification accepts a provider callback. The event id comes
// from the Idempotency-Key header so replays are recognised before the body
// is inspected.
func (s *Server) HandlePaymentNotification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	eventID := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if eventID == "" {
		AbortWithError(c, newValidationError("idempotency_key", "invalid_idempotency_key", "missing idempotency key"))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBytes))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	res, err := s.paymentSvc.HandleNotification(c.Request.Context(), scopeFrom(c), id, paymentdomain.Notification{
		Provider:        strings.TrimSpace(c.Param("provider")),
		ProviderEventID: eventID,
		Payload:         payload,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, res)
}

func (s *Server) FulfillOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := s.fulfillmentSvc.Fulfill(c.Request.Context(), scopeFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, res)
}
