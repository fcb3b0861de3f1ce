package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"fabrika/internal/core/apperror"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/domain/transfer"
	"fabrika/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock balances, movement history and transfers.
type StockHandler struct {
	*BaseHandler
	ledger    *ledger.Service
	transfers *transfer.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, ledgerSvc *ledger.Service, transfers *transfer.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		ledger:      ledgerSvc,
		transfers:   transfers,
	}
}

// Transfer handles POST /stock/transfers.
func (h *StockHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.transfers.Transfer(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTransferResult(res))
}

// Balance handles GET /stock/balance?materialId=&warehouseId=.
func (h *StockHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()

	materialID := h.ParseIDQuery(c, "materialId")
	if materialID == nil {
		h.Error(c, apperror.NewValidation("materialId is required"))
		return
	}

	warehouseID := h.ParseIDQuery(c, "warehouseId")
	if warehouseID == nil {
		// No warehouse means the company-wide available balance,
		// consumption locations excluded.
		qty, err := h.ledger.AvailableBalance(ctx, *materialID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.BalanceResponse{
			MaterialID: materialID.String(),
			Quantity:   qty,
		})
		return
	}

	qty, err := h.ledger.Balance(ctx, *materialID, *warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BalanceResponse{
		MaterialID:  materialID.String(),
		WarehouseID: warehouseID.String(),
		Quantity:    qty,
	})
}

// History handles GET /stock/history?materialId=.
func (h *StockHandler) History(c *gin.Context) {
	materialID := h.ParseIDQuery(c, "materialId")
	if materialID == nil {
		h.Error(c, apperror.NewValidation("materialId is required"))
		return
	}

	filter := ledger.HistoryFilter{
		WarehouseID: h.ParseIDQuery(c, "warehouseId"),
		Limit:       h.ParseIntQuery(c, "limit", 100),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	if dir := c.Query("direction"); dir != "" {
		d := ledger.Direction(dir)
		filter.Direction = &d
	}
	if from := c.Query("dateFrom"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &t
		}
	}
	if to := c.Query("dateTo"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &t
		}
	}

	movements, err := h.ledger.History(c.Request.Context(), *materialID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(movements))
}
