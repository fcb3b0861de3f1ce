package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fabrika/internal/domain/finance"
	"fabrika/internal/infrastructure/http/v1/dto"
)

// FinanceHandler serves invoices, payments and settlements.
type FinanceHandler struct {
	*BaseHandler
	invoices    *finance.InvoiceService
	allocations *finance.AllocationEngine
}

// NewFinanceHandler creates a new finance handler.
func NewFinanceHandler(base *BaseHandler, invoices *finance.InvoiceService, allocations *finance.AllocationEngine) *FinanceHandler {
	return &FinanceHandler{
		BaseHandler: base,
		invoices:    invoices,
		allocations: allocations,
	}
}

// CreateInvoice handles POST /finance/invoices.
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.invoices.Create(c.Request.Context(), inv); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// GetInvoice handles GET /finance/invoices/:id.
func (h *FinanceHandler) GetInvoice(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoices.Get(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// ListInvoices handles GET /finance/invoices.
func (h *FinanceHandler) ListInvoices(c *gin.Context) {
	filter := finance.InvoiceFilter{
		SupplierID: h.ParseIDQuery(c, "supplierId"),
		OrderID:    h.ParseIDQuery(c, "orderId"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	invoices, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(invoices))
}

// DeleteInvoice handles DELETE /finance/invoices/:id.
func (h *FinanceHandler) DeleteInvoice(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.invoices.Delete(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CreatePayment handles POST /finance/payments.
func (h *FinanceHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.allocations.CreatePayment(c.Request.Context(), payment); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GetPayment handles GET /finance/payments/:id.
func (h *FinanceHandler) GetPayment(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	payment, err := h.allocations.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, payment)
}

// ListPayments handles GET /finance/payments.
func (h *FinanceHandler) ListPayments(c *gin.Context) {
	filter := finance.PaymentFilter{
		SupplierID: h.ParseIDQuery(c, "supplierId"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}
	if kind := c.Query("kind"); kind != "" {
		k := finance.PaymentKind(kind)
		filter.Kind = &k
	}

	payments, err := h.allocations.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(payments))
}

// DeletePayment handles DELETE /finance/payments/:id.
// Reverses the payment's settlements and re-derives target balances.
func (h *FinanceHandler) DeletePayment(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.allocations.DeletePayment(c.Request.Context(), paymentID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Allocate handles POST /finance/payments/:id/allocate.
func (h *FinanceHandler) Allocate(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AllocateRequest
	if !h.BindJSONOptional(c, &req) {
		return
	}

	targets, err := req.ToTargets()
	if err != nil {
		h.Error(c, err)
		return
	}

	allocated, err := h.allocations.Allocate(c.Request.Context(), paymentID, targets)
	if err != nil {
		h.Error(c, err)
		return
	}

	advance, err := h.allocations.AdvanceRemainder(c.Request.Context(), paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AllocationResultResponse{
		Allocated: allocated,
		Advance:   advance,
	})
}

// ListAllocations handles GET /finance/payments/:id/allocations.
func (h *FinanceHandler) ListAllocations(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	allocations, err := h.allocations.ListAllocations(c.Request.Context(), paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(allocations))
}
