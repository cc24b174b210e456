package handlers

import (
	"net/http"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/customers"
	apperrors "github.com/juancollazo-ch/woo-fluxc-service/internal/errors"
)

// ListCustomers acepta page, page_size, search, email, role e include (ids remotos)
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	if fromLocal(r) {
		list, err := h.deps.Customers.GetCustomersForSite(r.Context(), st)
		writeLocal(h, w, r, &list, err, "customers")
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	pageSize, err := queryInt(r, "page_size", customers.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	include, err := queryInt64List(r, "include")
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}

	q := customers.CustomerQuery{
		Page:      page,
		PageSize:  pageSize,
		Search:    r.URL.Query().Get("search"),
		Email:     r.URL.Query().Get("email"),
		Role:      r.URL.Query().Get("role"),
		RemoteIDs: include,
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Customers.FetchCustomers(r.Context(), st, q))
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	id, err := pathInt64(r, "customerID")
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	if fromLocal(r) {
		c, err := h.deps.Customers.GetCustomerByRemoteID(r.Context(), st, id)
		writeLocal(h, w, r, c, err, "customer")
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Customers.FetchSingleCustomer(r.Context(), st, id))
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c customers.Customer
	if !h.decode(w, r, &c) {
		return
	}
	writeResult(h, w, r, http.StatusCreated, h.deps.Customers.CreateCustomer(r.Context(), siteFrom(r), c))
}
