package dto

import (
	"time"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/domain/transfer"
)

// TransferRequest moves stock between two warehouses.
type TransferRequest struct {
	MaterialID        string         `json:"materialId" binding:"required"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	SourceWarehouseID string         `json:"sourceWarehouseId" binding:"required"`
	DestWarehouseID   string         `json:"destWarehouseId" binding:"required"`
	OrderID           *string        `json:"orderId,omitempty"`

	// RefID makes the transfer idempotent; replays are detected by it.
	RefID *string `json:"refId,omitempty"`

	Date *time.Time `json:"date,omitempty"`
	Note string     `json:"note,omitempty"`
}

// ToRequest converts the DTO into a domain transfer request.
func (r *TransferRequest) ToRequest() (transfer.Request, error) {
	materialID, err := id.Parse(r.MaterialID)
	if err != nil {
		return transfer.Request{}, apperror.NewValidation("invalid material id")
	}
	sourceID, err := id.Parse(r.SourceWarehouseID)
	if err != nil {
		return transfer.Request{}, apperror.NewValidation("invalid source warehouse id")
	}
	destID, err := id.Parse(r.DestWarehouseID)
	if err != nil {
		return transfer.Request{}, apperror.NewValidation("invalid destination warehouse id")
	}

	req := transfer.Request{
		MaterialID:        materialID,
		Quantity:          r.Quantity,
		SourceWarehouseID: sourceID,
		DestWarehouseID:   destID,
		Note:              r.Note,
		RefKind:           ledger.RefKindTransfer,
	}

	if r.OrderID != nil {
		orderID, err := id.Parse(*r.OrderID)
		if err != nil {
			return transfer.Request{}, apperror.NewValidation("invalid order id")
		}
		req.OrderID = &orderID
	}
	if r.RefID != nil {
		refID, err := id.Parse(*r.RefID)
		if err != nil {
			return transfer.Request{}, apperror.NewValidation("invalid ref id")
		}
		req.RefID = refID
	}
	if r.Date != nil {
		req.Date = *r.Date
	} else {
		req.Date = time.Now()
	}
	return req, nil
}

// TransferResponse reports what a transfer wrote.
type TransferResponse struct {
	OutLineID      string  `json:"outLineId"`
	InLineID       string  `json:"inLineId"`
	Replayed       bool    `json:"replayed"`
	MatchedOrderID *string `json:"matchedOrderId,omitempty"`
}

// FromTransferResult maps a domain result to the response.
func FromTransferResult(res transfer.Result) TransferResponse {
	resp := TransferResponse{
		OutLineID: res.OutLineID.String(),
		InLineID:  res.InLineID.String(),
		Replayed:  res.Replayed,
	}
	if res.MatchedOrderID != nil {
		s := res.MatchedOrderID.String()
		resp.MatchedOrderID = &s
	}
	return resp
}

// BalanceResponse reports a stock balance projection.
type BalanceResponse struct {
	MaterialID  string         `json:"materialId"`
	WarehouseID string         `json:"warehouseId,omitempty"`
	Quantity    types.Quantity `json:"quantity"`
}
