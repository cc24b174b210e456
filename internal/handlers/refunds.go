package handlers

import (
	"net/http"

	apperrors "github.com/juancollazo-ch/woo-fluxc-service/internal/errors"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/refunds"
	"github.com/shopspring/decimal"
)

// CreateRefundRequest: con items se reembolsa por ítem (amount se calcula), sin items por monto
type CreateRefundRequest struct {
	Amount       decimal.Decimal             `json:"amount"`
	Reason       string                      `json:"reason"`
	APIRefund    bool                        `json:"api_refund"`
	RestockItems bool                        `json:"restock_items"`
	Items        []refunds.ItemRefundRequest `json:"items,omitempty"`
}

func (h *Handler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	orderID, err := pathInt64(r, "orderID")
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	if fromLocal(r) {
		list, err := h.deps.Refunds.GetAllRefunds(r.Context(), st, orderID)
		writeLocal(h, w, r, &list, err, "refunds")
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	pageSize, err := queryInt(r, "page_size", refunds.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Refunds.FetchAllRefunds(r.Context(), st, orderID, page, pageSize))
}

func (h *Handler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	orderID, err := pathInt64(r, "orderID")
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	var req CreateRefundRequest
	if !h.decode(w, r, &req) {
		return
	}

	if len(req.Items) > 0 {
		writeResult(h, w, r, http.StatusCreated,
			h.deps.Refunds.CreateItemsRefund(r.Context(), st, orderID, req.Reason, req.APIRefund, req.Items, req.RestockItems))
		return
	}
	writeResult(h, w, r, http.StatusCreated,
		h.deps.Refunds.CreateAmountRefund(r.Context(), st, orderID, req.Amount, req.Reason, req.APIRefund))
}
