package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/addons"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/customers"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/dispatcher"
	apperrors "github.com/juancollazo-ch/woo-fluxc-service/internal/errors"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/gateways"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/orders"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/refunds"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/taxes"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/worker"
	"go.uber.org/zap"
)

const (
	ActionFetchOrders       dispatcher.ActionType = "FETCH_ORDERS"
	ActionFetchSingleOrder  dispatcher.ActionType = "FETCH_SINGLE_ORDER"
	ActionUpdateOrderStatus dispatcher.ActionType = "UPDATE_ORDER_STATUS"
	ActionFetchGateways     dispatcher.ActionType = "FETCH_GATEWAYS"
	ActionUpdateGateway     dispatcher.ActionType = "UPDATE_GATEWAY"
	ActionFetchTaxClasses   dispatcher.ActionType = "FETCH_TAX_CLASSES"
	ActionFetchTaxRates     dispatcher.ActionType = "FETCH_TAX_RATES"
	ActionFetchCustomers    dispatcher.ActionType = "FETCH_CUSTOMERS"
	ActionFetchRefunds      dispatcher.ActionType = "FETCH_REFUNDS"
	ActionFetchAddonGroups  dispatcher.ActionType = "FETCH_ADDON_GROUPS"
	ActionSyncSite          dispatcher.ActionType = "SYNC_SITE"
)

const (
	EventOrdersFetched      dispatcher.EventType = "OnOrdersFetched"
	EventOrderChanged       dispatcher.EventType = "OnOrderChanged"
	EventGatewaysChanged    dispatcher.EventType = "OnGatewaysChanged"
	EventTaxClassesChanged  dispatcher.EventType = "OnTaxClassesChanged"
	EventTaxRatesChanged    dispatcher.EventType = "OnTaxRatesChanged"
	EventCustomersChanged   dispatcher.EventType = "OnCustomersChanged"
	EventRefundsChanged     dispatcher.EventType = "OnRefundsChanged"
	EventAddonGroupsChanged dispatcher.EventType = "OnAddonGroupsChanged"
	EventSiteSynced         dispatcher.EventType = "OnSiteSynced"
)

type orderIDPayload struct {
	OrderID int64 `json:"order_id"`
}

type orderStatusPayload struct {
	OrderID      int64  `json:"order_id"`
	LocalOrderID int64  `json:"local_order_id"`
	Status       string `json:"status"`
}

type gatewayPayload struct {
	GatewayID string `json:"gateway_id"`
	gateways.UpdateGatewayRequest
}

type pagePayload struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type refundsPayload struct {
	OrderID int64 `json:"order_id"`
	pagePayload
}

type noPayload struct{}

func many[T any](items []T) int { return len(items) }
func one[T any](T) int          { return 1 }

// storeAction adapta una operación de Store a un handler del dispatcher:
// resuelve el sitio, decodifica el payload y arma el evento con el resultado.
func storeAction[P, T any](sites *site.DAO, eventType dispatcher.EventType,
	run func(ctx context.Context, st site.Site, payload P) woo.Result[T], rows func(T) int) dispatcher.Handler {
	return func(ctx context.Context, action dispatcher.Action) dispatcher.Event {
		event := dispatcher.Event{Type: eventType, LocalSiteID: action.LocalSiteID}

		st, err := sites.Get(ctx, action.LocalSiteID)
		if err != nil {
			event.Error = woo.InvalidParam(fmt.Sprintf("site %d: %v", action.LocalSiteID, err))
			return event
		}

		var payload P
		if len(action.Payload) > 0 {
			if err := json.Unmarshal(action.Payload, &payload); err != nil {
				event.Error = woo.InvalidParam("invalid payload: " + err.Error())
				return event
			}
		}

		res := run(logging.WithLoggingFields(ctx, "", st.LocalID), st, payload)
		if res.IsError() {
			event.Error = res.Error
			return event
		}
		event.RowsAffected = rows(res.Model)
		event.Payload = res.Model
		return event
	}
}

// RegisterActions registra en el dispatcher las acciones que resuelven los stores
func RegisterActions(d *dispatcher.Dispatcher, deps Dependencies) {
	sites := deps.Sites

	d.Register(ActionFetchOrders, storeAction(sites, EventOrdersFetched,
		func(ctx context.Context, st site.Site, q orders.OrderQuery) woo.Result[[]orders.Order] {
			return deps.Orders.FetchOrders(ctx, st, q)
		}, many[orders.Order]))

	d.Register(ActionFetchSingleOrder, storeAction(sites, EventOrderChanged,
		func(ctx context.Context, st site.Site, p orderIDPayload) woo.Result[orders.Order] {
			return deps.Orders.FetchSingleOrder(ctx, st, p.OrderID)
		}, one[orders.Order]))

	d.Register(ActionUpdateOrderStatus, storeAction(sites, EventOrderChanged,
		func(ctx context.Context, st site.Site, p orderStatusPayload) woo.Result[orders.Order] {
			var id woo.LocalOrRemoteID = woo.RemoteID(p.OrderID)
			if p.LocalOrderID > 0 {
				id = woo.LocalID(p.LocalOrderID)
			}
			return deps.Orders.UpdateOrderStatus(ctx, st, id, p.Status)
		}, one[orders.Order]))

	d.Register(ActionFetchGateways, storeAction(sites, EventGatewaysChanged,
		func(ctx context.Context, st site.Site, _ noPayload) woo.Result[[]gateways.Gateway] {
			return deps.Gateways.FetchAllGateways(ctx, st)
		}, many[gateways.Gateway]))

	d.Register(ActionUpdateGateway, storeAction(sites, EventGatewaysChanged,
		func(ctx context.Context, st site.Site, p gatewayPayload) woo.Result[gateways.Gateway] {
			if p.GatewayID == "" {
				return woo.Failure[gateways.Gateway](woo.InvalidParam("gateway_id is required"))
			}
			return deps.Gateways.UpdatePaymentGateway(ctx, st, p.GatewayID, p.UpdateGatewayRequest)
		}, one[gateways.Gateway]))

	d.Register(ActionFetchTaxClasses, storeAction(sites, EventTaxClassesChanged,
		func(ctx context.Context, st site.Site, _ noPayload) woo.Result[[]taxes.TaxClass] {
			return deps.Taxes.FetchTaxClassList(ctx, st)
		}, many[taxes.TaxClass]))

	d.Register(ActionFetchTaxRates, storeAction(sites, EventTaxRatesChanged,
		func(ctx context.Context, st site.Site, p pagePayload) woo.Result[[]taxes.TaxRate] {
			if p.Page < 1 {
				p.Page = 1
			}
			return deps.Taxes.FetchTaxRateList(ctx, st, p.Page, p.PageSize)
		}, many[taxes.TaxRate]))

	d.Register(ActionFetchCustomers, storeAction(sites, EventCustomersChanged,
		func(ctx context.Context, st site.Site, q customers.CustomerQuery) woo.Result[[]customers.Customer] {
			return deps.Customers.FetchCustomers(ctx, st, q)
		}, many[customers.Customer]))

	d.Register(ActionFetchRefunds, storeAction(sites, EventRefundsChanged,
		func(ctx context.Context, st site.Site, p refundsPayload) woo.Result[[]refunds.Refund] {
			return deps.Refunds.FetchAllRefunds(ctx, st, p.OrderID, p.Page, p.PageSize)
		}, many[refunds.Refund]))

	d.Register(ActionFetchAddonGroups, storeAction(sites, EventAddonGroupsChanged,
		func(ctx context.Context, st site.Site, _ noPayload) woo.Result[[]addons.AddonGroup] {
			return deps.Addons.FetchGlobalAddonGroups(ctx, st)
		}, many[addons.AddonGroup]))

	d.Register(ActionSyncSite, func(ctx context.Context, action dispatcher.Action) dispatcher.Event {
		event := dispatcher.Event{Type: EventSiteSynced, LocalSiteID: action.LocalSiteID}
		st, err := sites.Get(ctx, action.LocalSiteID)
		if err != nil {
			event.Error = woo.InvalidParam(fmt.Sprintf("site %d: %v", action.LocalSiteID, err))
			return event
		}
		summary, err := deps.Syncer.SyncSite(ctx, st)
		event.Payload = summary
		for _, n := range summary.Counts {
			event.RowsAffected += n
		}
		if err != nil {
			event.Error = woo.PersistenceError(err)
		}
		return event
	})
}

type DispatchResponse struct {
	Status  string `json:"status"`
	Action  string `json:"action"`
	TraceID string `json:"trace_id,omitempty"`
}

// DispatchAction encola la acción (202). Con ?wait=true la resuelve en el request y devuelve el evento.
func (h *Handler) DispatchAction(w http.ResponseWriter, r *http.Request) {
	var action dispatcher.Action
	if !h.decode(w, r, &action) || !h.validate(w, r, &action) {
		return
	}
	log := logging.FromContext(r.Context(), h.logger)

	if strings.EqualFold(r.URL.Query().Get("wait"), "true") {
		event, err := h.deps.Dispatcher.DispatchSync(r.Context(), action)
		if err != nil {
			h.writeDispatchError(w, r, err)
			return
		}
		status := http.StatusOK
		if event.IsError() {
			appErr := apperrors.FromWooError(event.Error)
			status = apperrors.GetStatusCode(appErr)
			setRetryAfter(w, appErr)
		}
		writeJSON(w, status, event)
		return
	}

	if err := h.deps.Dispatcher.Dispatch(r.Context(), action); err != nil {
		h.writeDispatchError(w, r, err)
		return
	}
	log.Info("Action queued", zap.String("action", string(action.Type)), zap.Int("local_site_id", action.LocalSiteID))
	writeJSON(w, http.StatusAccepted, DispatchResponse{
		Status:  "queued",
		Action:  string(action.Type),
		TraceID: logging.TraceID(r.Context()),
	})
}

func (h *Handler) writeDispatchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dispatcher.ErrUnknownAction):
		h.writeError(w, r, apperrors.ErrBadRequest(err.Error(), err))
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		h.writeError(w, r, apperrors.ErrServiceUnavailable(err.Error(), err))
	default:
		h.writeError(w, r, apperrors.ErrInternalServer("dispatch failed", err))
	}
}
