package handlers

import (
	"github.com/gin-gonic/gin"

	"fabrika/internal/domain/procurement"
	"fabrika/internal/infrastructure/http/v1/dto"
)

// ProcurementHandler serves quotes, the currency lock and purchase orders.
type ProcurementHandler struct {
	*BaseHandler
	service *procurement.Service
	lock    *procurement.CurrencyLockService
}

// NewProcurementHandler creates a new procurement handler.
func NewProcurementHandler(base *BaseHandler, service *procurement.Service, lock *procurement.CurrencyLockService) *ProcurementHandler {
	return &ProcurementHandler{
		BaseHandler: base,
		service:     service,
		lock:        lock,
	}
}

// CreateQuote handles POST /procurement/quotes.
func (h *ProcurementHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	quote, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreateQuote(c.Request.Context(), quote); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, quote.ID)
}

// GetQuote handles GET /procurement/quotes/:id.
func (h *ProcurementHandler) GetQuote(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	quote, err := h.service.GetQuote(c.Request.Context(), quoteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, quote)
}

// ListQuotes handles GET /procurement/quotes.
func (h *ProcurementHandler) ListQuotes(c *gin.Context) {
	filter := procurement.QuoteFilter{
		MaterialID: h.ParseIDQuery(c, "materialId"),
		SupplierID: h.ParseIDQuery(c, "supplierId"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := procurement.QuoteStatus(status)
		filter.Status = &s
	}

	quotes, err := h.service.ListQuotes(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(quotes))
}

// LockQuote handles POST /procurement/quotes/:id/lock.
func (h *ProcurementHandler) LockQuote(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.LockQuoteRequest
	if !h.BindJSONOptional(c, &req) {
		return
	}

	snapshot, err := h.lock.LockQuote(c.Request.Context(), quoteID, req.AsOf, req.Force)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, snapshot)
}

// ApproveQuote handles POST /procurement/quotes/:id/approve.
// Locks the currency snapshot first, then creates the purchase order.
func (h *ProcurementHandler) ApproveQuote(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ApproveQuoteRequest
	if !h.BindJSONOptional(c, &req) {
		return
	}

	order, err := h.service.ApproveQuote(c.Request.Context(), quoteID, req.AsOf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// RejectQuote handles POST /procurement/quotes/:id/reject.
func (h *ProcurementHandler) RejectQuote(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.RejectQuote(c.Request.Context(), quoteID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// GetOrder handles GET /procurement/orders/:id.
func (h *ProcurementHandler) GetOrder(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// ListOrders handles GET /procurement/orders.
func (h *ProcurementHandler) ListOrders(c *gin.Context) {
	filter := procurement.OrderFilter{
		MaterialID: h.ParseIDQuery(c, "materialId"),
		SupplierID: h.ParseIDQuery(c, "supplierId"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}
	if status := c.Query("deliveryStatus"); status != "" {
		s := procurement.DeliveryStatus(status)
		filter.DeliveryStatus = &s
	}

	orders, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(orders))
}

// RegisterDelivery handles POST /procurement/orders/:id/deliveries.
func (h *ProcurementHandler) RegisterDelivery(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.DeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.RegisterDelivery(c.Request.Context(), orderID, req.Quantity); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
