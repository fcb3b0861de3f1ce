package handlers

import (
	"github.com/gin-gonic/gin"

	"fabrika/internal/core/apperror"
	"fabrika/internal/domain/billing"
	"fabrika/internal/infrastructure/http/v1/dto"
)

// BillingHandler serves progress claims.
type BillingHandler struct {
	*BaseHandler
	engine *billing.Engine
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(base *BaseHandler, engine *billing.Engine) *BillingHandler {
	return &BillingHandler{
		BaseHandler: base,
		engine:      engine,
	}
}

// CreateClaim handles POST /billing/claims.
func (h *BillingHandler) CreateClaim(c *gin.Context) {
	var req dto.CreateClaimRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	claim, err := h.engine.CreateClaim(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(201, claim)
}

// GetClaim handles GET /billing/claims/:id.
func (h *BillingHandler) GetClaim(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	claim, err := h.engine.GetClaim(c.Request.Context(), claimID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, claim)
}

// ListClaims handles GET /billing/claims?orderId=.
func (h *BillingHandler) ListClaims(c *gin.Context) {
	orderID := h.ParseIDQuery(c, "orderId")
	if orderID == nil {
		h.Error(c, apperror.NewValidation("orderId is required"))
		return
	}

	claims, err := h.engine.ListClaims(c.Request.Context(), *orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(claims))
}

// RemainingPercent handles GET /billing/claims/remaining?orderId=.
func (h *BillingHandler) RemainingPercent(c *gin.Context) {
	orderID := h.ParseIDQuery(c, "orderId")
	if orderID == nil {
		h.Error(c, apperror.NewValidation("orderId is required"))
		return
	}

	remaining, err := h.engine.RemainingPercent(c.Request.Context(), *orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"orderId":   orderID.String(),
		"remaining": remaining,
	})
}
