package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/addons"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/contextkeys"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/customers"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/dispatcher"
	apperrors "github.com/juancollazo-ch/woo-fluxc-service/internal/errors"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/gateways"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/orders"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/refunds"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	sitesync "github.com/juancollazo-ch/woo-fluxc-service/internal/sync"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/taxes"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/validator"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"go.uber.org/zap"
)

// Dependencies son los stores y servicios que expone la API HTTP
type Dependencies struct {
	Sites      *site.DAO
	Gateways   *gateways.Store
	Taxes      *taxes.Store
	Refunds    *refunds.Store
	Customers  *customers.Store
	Orders     *orders.Store
	Addons     *addons.Store
	Syncer     *sitesync.Syncer
	SiteData   []sitesync.SiteDeleter // DAOs que se limpian al borrar un sitio
	Dispatcher *dispatcher.Dispatcher
	Metrics    http.Handler
	Ping       func() error
	Logger     *zap.Logger
}

type Handler struct {
	deps      Dependencies
	validator *validator.RequestValidator
	logger    *zap.Logger
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:      deps,
		validator: validator.NewRequestValidator(),
		logger:    deps.Logger,
	}
}

// NewRouter arma las rutas HTTP del servicio
func NewRouter(deps Dependencies) http.Handler {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(WithLogging(deps.Logger))

	r.Get("/health", h.Health)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}
	r.Post("/actions", h.DispatchAction)

	r.Route("/sites", func(r chi.Router) {
		r.Get("/", h.ListSites)
		r.Post("/", h.CreateSite)

		r.Route("/{siteID}", func(r chi.Router) {
			r.Use(h.loadSite)
			r.Get("/", h.GetSite)
			r.Delete("/", h.DeleteSite)
			r.Post("/sync", h.SyncSite)

			r.Get("/gateways", h.ListGateways)
			r.Get("/gateways/{gatewayID}", h.GetGateway)
			r.Post("/gateways/{gatewayID}", h.UpdateGateway)

			r.Get("/taxes/classes", h.ListTaxClasses)
			r.Post("/taxes/classes", h.CreateTaxClass)
			r.Get("/taxes/rates", h.ListTaxRates)
			r.Get("/taxes/rates/{rateID}", h.GetTaxRate)

			r.Get("/orders", h.ListOrders)
			r.Post("/orders", h.CreateOrder)
			r.Get("/orders/{orderID}", h.GetOrder)
			r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)
			r.Delete("/orders/{orderID}", h.DeleteOrder)
			r.Get("/orders/{orderID}/refunds", h.ListRefunds)
			r.Post("/orders/{orderID}/refunds", h.CreateRefund)

			r.Get("/customers", h.ListCustomers)
			r.Post("/customers", h.CreateCustomer)
			r.Get("/customers/{customerID}", h.GetCustomer)

			r.Get("/addons", h.ListAddonGroups)
			r.Get("/addons/products/{productID}", h.GetProductAddons)
		})
	})
	return r
}

// HEALTH CHECK
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Service: "woo-fluxc-service", Version: "1.0.0"}
	status := http.StatusOK
	if h.deps.Ping != nil {
		resp.Database = "ok"
		if err := h.deps.Ping(); err != nil {
			logging.FromContext(r.Context(), h.logger).Error("Database ping failed", zap.Error(err))
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

// loadSite resuelve {siteID} y deja el sitio en el contexto
func (h *Handler) loadSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		localID, err := strconv.Atoi(chi.URLParam(r, "siteID"))
		if err != nil || localID <= 0 {
			h.writeError(w, r, apperrors.ErrBadRequest("siteID must be a positive integer", err))
			return
		}

		st, err := h.deps.Sites.Get(r.Context(), localID)
		if errors.Is(err, site.ErrNotFound) {
			h.writeError(w, r, apperrors.ErrNotFound(fmt.Sprintf("site %d not found", localID), err))
			return
		}
		if err != nil {
			h.writeError(w, r, apperrors.ErrInternalServer("failed to load site", err))
			return
		}

		ctx := logging.WithLoggingFields(r.Context(), "", st.LocalID)
		ctx = context.WithValue(ctx, contextkeys.SiteKey, st)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func siteFrom(r *http.Request) site.Site {
	st, _ := r.Context().Value(contextkeys.SiteKey).(site.Site)
	return st
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	log := logging.FromContext(r.Context(), h.logger)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Int("status", appErr.StatusCode), zap.Error(appErr))
	} else {
		log.Warn("Request rejected", zap.Int("status", appErr.StatusCode), zap.String("message", appErr.Message), zap.String("details", appErr.Details))
	}
	setRetryAfter(w, appErr)
	writeJSON(w, appErr.StatusCode, appErr)
}

// retryAfterSeconds se anuncia en errores transitorios
const retryAfterSeconds = "5"

func setRetryAfter(w http.ResponseWriter, err error) {
	if apperrors.IsRetryable(err) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
}

// writeResult escribe el modelo del Store o su error traducido
func writeResult[T any](h *Handler, w http.ResponseWriter, r *http.Request, status int, res woo.Result[T]) {
	if res.IsError() {
		h.writeError(w, r, apperrors.FromWooError(res.Error))
		return
	}
	writeJSON(w, status, res.Model)
}

// writeLocal escribe una lectura local; nil se responde como 404
func writeLocal[T any](h *Handler, w http.ResponseWriter, r *http.Request, model *T, err error, what string) {
	if err != nil {
		h.writeError(w, r, apperrors.ErrInternalServer("failed to read local "+what, err))
		return
	}
	if model == nil {
		h.writeError(w, r, apperrors.ErrNotFound(what+" not stored locally", nil))
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest("Invalid JSON", err))
		return false
	}
	return true
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := h.validator.Struct(v); err != nil {
		h.writeError(w, r, apperrors.ErrValidation(err.Error(), err))
		return false
	}
	return true
}

// fromLocal: ?source=local lee de la base en lugar de ir a la API
func fromLocal(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("source"), "local")
}

func pathInt64(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func queryInt64List(r *http.Request, name string) ([]int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a comma separated list of ids", name)
		}
		out = append(out, n)
	}
	return out, nil
}

// orderID interpreta {orderID} como remoto salvo ?local=true
func orderID(r *http.Request) (woo.LocalOrRemoteID, error) {
	id, err := pathInt64(r, "orderID")
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(r.URL.Query().Get("local"), "true") {
		return woo.LocalID(id), nil
	}
	return woo.RemoteID(id), nil
}
