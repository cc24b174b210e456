package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/addons"
	apperrors "github.com/juancollazo-ch/woo-fluxc-service/internal/errors"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/gateways"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/taxes"
)

// Gateways

func (h *Handler) ListGateways(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	if fromLocal(r) {
		list, err := h.deps.Gateways.GetAllGateways(r.Context(), st)
		writeLocal(h, w, r, &list, err, "gateways")
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Gateways.FetchAllGateways(r.Context(), st))
}

func (h *Handler) GetGateway(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	gatewayID := chi.URLParam(r, "gatewayID")
	if fromLocal(r) {
		g, err := h.deps.Gateways.GetGateway(r.Context(), st, gatewayID)
		writeLocal(h, w, r, g, err, "gateway")
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Gateways.FetchGateway(r.Context(), st, gatewayID))
}

func (h *Handler) UpdateGateway(w http.ResponseWriter, r *http.Request) {
	var req gateways.UpdateGatewayRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.deps.Gateways.UpdatePaymentGateway(r.Context(), siteFrom(r), chi.URLParam(r, "gatewayID"), req)
	writeResult(h, w, r, http.StatusOK, res)
}

// Taxes

type CreateTaxClassRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) ListTaxClasses(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	if fromLocal(r) {
		list, err := h.deps.Taxes.GetTaxClassListForSite(r.Context(), st)
		writeLocal(h, w, r, &list, err, "tax classes")
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Taxes.FetchTaxClassList(r.Context(), st))
}

// TaxRateFilter es el filtro de ?source=local&class=<slug>
type TaxRateFilter struct {
	Class string `validate:"omitempty,wooslug"`
}

func (h *Handler) CreateTaxClass(w http.ResponseWriter, r *http.Request) {
	var req CreateTaxClassRequest
	if !h.decode(w, r, &req) || !h.validate(w, r, &req) {
		return
	}
	writeResult(h, w, r, http.StatusCreated, h.deps.Taxes.CreateTaxClass(r.Context(), siteFrom(r), strings.TrimSpace(req.Name)))
}

func (h *Handler) ListTaxRates(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	if fromLocal(r) {
		filter := TaxRateFilter{Class: r.URL.Query().Get("class")}
		if !h.validate(w, r, &filter) {
			return
		}
		var list []taxes.TaxRate
		var err error
		if filter.Class != "" {
			list, err = h.deps.Taxes.GetTaxRatesForClass(r.Context(), st, filter.Class)
		} else {
			list, err = h.deps.Taxes.GetTaxRateList(r.Context(), st)
		}
		writeLocal(h, w, r, &list, err, "tax rates")
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	pageSize, err := queryInt(r, "page_size", taxes.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Taxes.FetchTaxRateList(r.Context(), st, page, pageSize))
}

func (h *Handler) GetTaxRate(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	rateID, err := pathInt64(r, "rateID")
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	if fromLocal(r) {
		rate, err := h.deps.Taxes.GetTaxRate(r.Context(), st, rateID)
		writeLocal(h, w, r, rate, err, "tax rate")
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Taxes.FetchTaxRate(r.Context(), st, rateID))
}

// Add-ons

func (h *Handler) ListAddonGroups(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	if fromLocal(r) {
		groups, err := h.deps.Addons.GetGlobalAddonGroups(r.Context(), st)
		writeLocal(h, w, r, &groups, err, "addon groups")
		return
	}
	writeResult(h, w, r, http.StatusOK, h.deps.Addons.FetchGlobalAddonGroups(r.Context(), st))
}

// GetProductAddons devuelve los add-ons efectivos del producto: los propios más los
// grupos globales que apliquen a ?category_ids (salvo exclude_global).
func (h *Handler) GetProductAddons(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	productID, err := pathInt64(r, "productID")
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}
	categoryIDs, err := queryInt64List(r, "category_ids")
	if err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
		return
	}

	var product addons.ProductAddons
	if fromLocal(r) {
		stored, err := h.deps.Addons.GetProductAddons(r.Context(), st, productID)
		if err != nil {
			h.writeError(w, r, apperrors.ErrInternalServer("failed to read local product addons", err))
			return
		}
		if stored == nil {
			h.writeError(w, r, apperrors.ErrNotFound("product addons not stored locally", nil))
			return
		}
		product = *stored
	} else {
		res := h.deps.Addons.FetchProductAddons(r.Context(), st, productID)
		if res.IsError() {
			h.writeError(w, r, apperrors.FromWooError(res.Error))
			return
		}
		product = res.Model
	}

	if !product.ExcludeGlobal {
		merged, err := h.deps.Addons.AddonsForProduct(r.Context(), st, product.Addons, categoryIDs)
		if err != nil {
			h.writeError(w, r, apperrors.ErrInternalServer("failed to merge global addons", err))
			return
		}
		product.Addons = merged
	}
	writeJSON(w, http.StatusOK, product)
}
