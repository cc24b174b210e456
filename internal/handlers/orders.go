package handlers

import (
	"net/http"
	"strings"

	apperrors "github.com/juancollazo-ch/woo-fluxc-service/internal/errors"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/orders"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListOrders acepta page, page_size, status (lista separada por comas), after y before
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	var statuses []string
	if raw := r.URL.Query().Get("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	if fromLocal(r) {
		list, err := h.deps.Orders.GetOrdersForSite(r.Context(), st, statuses...)
		writeLocal(h, w, r, &list, err, "orders")
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	pageSize, err := queryInt(r, "page_size", orders.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}

	q := orders.OrderQuery{
		Page:     page,
		PageSize: pageSize,
		Statuses: statuses,
		After:    r.URL.Query().Get("after"),
		Before:   r.URL.Query().Get("before"),
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Orders.FetchOrders(r.Context(), st, q))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	id, err := orderID(r)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	if fromLocal(r) || id.IsLocal() {
		order, err := h.deps.Orders.GetOrder(r.Context(), st, id)
		writeLocal(h, w, r, order, err, "order")
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Orders.FetchSingleOrder(r.Context(), st, id.Value()))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeResult(h, w, r, http.StatusCreated, h.deps.Orders.CreateOrder(r.Context(), siteFrom(r), req))
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	var req UpdateOrderStatusRequest
	if !h.decode(w, r, &req) || !h.validate(w, r, &req) {
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Orders.UpdateOrderStatus(r.Context(), siteFrom(r), id, req.Status))
}

// DeleteOrder manda a la papelera salvo ?force=true
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	force := strings.EqualFold(r.URL.Query().Get("force"), "true")
	writeResult(h, w, r, http.StatusOK, h.deps.Orders.DeleteOrder(r.Context(), siteFrom(r), id, force))
}
