package orders

import (
	"context"
	"fmt"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/compare"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/dispatcher"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/validator"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 25
	maxPageSize     = 100
)

// EventEmitter recibe los cambios de estado detectados (normalmente el dispatcher).
type EventEmitter interface {
	Emit(event dispatcher.Event)
}

// StatusChange es el payload de EventOrderStatusChanged
type StatusChange struct {
	LocalOrderID int64  `json:"local_order_id"`
	SiteURL      string `json:"site_url"`
	compare.Result
}

type Store struct {
	rest    *RestClient
	dao     *DAO
	emitter EventEmitter
	logger  *zap.Logger
}

// NewStore: emitter puede ser nil (no se publican cambios de estado).
func NewStore(client *network.Client, dao *DAO, emitter EventEmitter, logger *zap.Logger) *Store {
	return &Store{rest: NewRestClient(client), dao: dao, emitter: emitter, logger: logger}
}

// FetchOrders trae una página de órdenes, las persiste y publica los cambios de estado.
func (s *Store) FetchOrders(ctx context.Context, st site.Site, q OrderQuery) woo.Result[[]Order] {
	if err := validator.Struct(q); err != nil {
		return woo.Failure[[]Order](woo.InvalidParam(err.Error()))
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > maxPageSize {
		q.PageSize = DefaultPageSize
	}

	resp := s.rest.FetchOrders(ctx, st, q)
	if resp.IsError() {
		return woo.Failure[[]Order](woo.ToWooError(resp.Err))
	}

	saved := make([]Order, 0, len(resp.Data))
	for _, dto := range resp.Data {
		order, err := s.persistFetched(ctx, st, dto.ToModel(st.LocalID))
		if err != nil {
			return woo.Failure[[]Order](woo.PersistenceError(err))
		}
		saved = append(saved, order)
	}

	logging.FromContext(ctx, s.logger).Info("Orders fetched",
		zap.Int("page", q.Page), zap.Int("count", len(saved)))
	return woo.Success(saved)
}

func (s *Store) FetchSingleOrder(ctx context.Context, st site.Site, remoteOrderID int64) woo.Result[Order] {
	if remoteOrderID <= 0 {
		return woo.Failure[Order](woo.InvalidParam("order id must be positive"))
	}

	resp := s.rest.FetchSingleOrder(ctx, st, remoteOrderID)
	if resp.IsError() {
		return woo.Failure[Order](woo.ToWooError(resp.Err))
	}

	order, err := s.persistFetched(ctx, st, resp.Data.ToModel(st.LocalID))
	if err != nil {
		return woo.Failure[Order](woo.PersistenceError(err))
	}
	return woo.Success(order)
}

// UpdateOrderStatus aplica el estado localmente primero; si la API falla se restaura el anterior.
func (s *Store) UpdateOrderStatus(ctx context.Context, st site.Site, id woo.LocalOrRemoteID, status string) woo.Result[Order] {
	log := logging.FromContext(ctx, s.logger)
	if status == "" {
		return woo.Failure[Order](woo.InvalidParam("status is required"))
	}

	stored, err := s.dao.Get(ctx, st.LocalID, id)
	if err != nil {
		return woo.Failure[Order](woo.PersistenceError(err))
	}

	remoteID := id.Value()
	if id.IsLocal() {
		if stored == nil {
			return woo.Failure[Order](woo.InvalidParam(fmt.Sprintf("order %s not found", id)))
		}
		if stored.IsLocalDraft() {
			return woo.Failure[Order](woo.InvalidParam(fmt.Sprintf("order %s has no remote id", id)))
		}
		remoteID = stored.RemoteOrderID
	}
	if remoteID <= 0 {
		return woo.Failure[Order](woo.InvalidParam("order id must be positive"))
	}

	if stored != nil {
		if err := s.dao.UpdateStatus(ctx, st.LocalID, stored.LocalID, status); err != nil {
			return woo.Failure[Order](woo.PersistenceError(err))
		}
	}

	resp := s.rest.UpdateOrderStatus(ctx, st, remoteID, status)
	if resp.IsError() {
		if stored != nil {
			if err := s.dao.UpdateStatus(ctx, st.LocalID, stored.LocalID, stored.Status); err != nil {
				log.Error("Failed to restore order status", zap.Int64("local_order_id", stored.LocalID), zap.Error(err))
			}
		}
		return woo.Failure[Order](woo.ToWooError(resp.Err))
	}

	updated := resp.Data.ToModel(st.LocalID)
	if stored != nil {
		updated.LocalID = stored.LocalID
	}
	saved, err := s.dao.InsertOrUpdate(ctx, updated)
	if err != nil {
		log.Error("Failed to persist updated order", zap.Int64("order_id", remoteID), zap.Error(err))
		return woo.Failure[Order](woo.PersistenceError(err))
	}

	var previous *compare.OrderSnapshot
	if stored != nil {
		snapshot := stored.Snapshot()
		previous = &snapshot
	}
	s.publishIfChanged(ctx, st, previous, saved)
	return woo.Success(saved)
}

// CreateOrder guarda un borrador local, crea la orden remota y asigna el id remoto a ese borrador.
// Si la API falla el borrador se elimina.
func (s *Store) CreateOrder(ctx context.Context, st site.Site, req CreateOrderRequest) woo.Result[Order] {
	log := logging.FromContext(ctx, s.logger)
	if err := validator.Struct(req); err != nil {
		return woo.Failure[Order](woo.InvalidParam(err.Error()))
	}

	draft, err := s.dao.InsertOrUpdate(ctx, req.draft(st.LocalID))
	if err != nil {
		return woo.Failure[Order](woo.PersistenceError(err))
	}

	resp := s.rest.CreateOrder(ctx, st, req)
	if resp.IsError() {
		if _, err := s.dao.Delete(ctx, st.LocalID, woo.LocalID(draft.LocalID)); err != nil {
			log.Error("Failed to remove local draft", zap.Int64("local_order_id", draft.LocalID), zap.Error(err))
		}
		return woo.Failure[Order](woo.ToWooError(resp.Err))
	}

	created := resp.Data.ToModel(st.LocalID)
	created.LocalID = draft.LocalID
	saved, err := s.dao.InsertOrUpdate(ctx, created)
	if err != nil {
		log.Error("Failed to persist created order", zap.Int64("order_id", created.RemoteOrderID), zap.Error(err))
		return woo.Failure[Order](woo.PersistenceError(err))
	}

	log.Info("Order created", zap.Int64("order_id", saved.RemoteOrderID), zap.Int64("local_order_id", saved.LocalID))
	return woo.Success(saved)
}

// DeleteOrder borra la orden remota (papelera salvo force) y la fila local.
func (s *Store) DeleteOrder(ctx context.Context, st site.Site, id woo.LocalOrRemoteID, force bool) woo.Result[Order] {
	stored, err := s.dao.Get(ctx, st.LocalID, id)
	if err != nil {
		return woo.Failure[Order](woo.PersistenceError(err))
	}

	remoteID := id.Value()
	if id.IsLocal() {
		if stored == nil {
			return woo.Failure[Order](woo.InvalidParam(fmt.Sprintf("order %s not found", id)))
		}
		remoteID = stored.RemoteOrderID
	}

	// un borrador local nunca llegó a la API: sólo se borra la fila
	var deleted Order
	switch {
	case stored != nil && stored.IsLocalDraft():
		deleted = *stored
	case remoteID > 0:
		resp := s.rest.DeleteOrder(ctx, st, remoteID, force)
		if resp.IsError() {
			return woo.Failure[Order](woo.ToWooError(resp.Err))
		}
		deleted = resp.Data.ToModel(st.LocalID)
	default:
		return woo.Failure[Order](woo.InvalidParam("order id must be positive"))
	}

	if stored != nil {
		deleted.LocalID = stored.LocalID
		if _, err := s.dao.Delete(ctx, st.LocalID, woo.LocalID(stored.LocalID)); err != nil {
			return woo.Failure[Order](woo.PersistenceError(err))
		}
	}
	return woo.Success(deleted)
}

func (s *Store) GetOrder(ctx context.Context, st site.Site, id woo.LocalOrRemoteID) (*Order, error) {
	return s.dao.Get(ctx, st.LocalID, id)
}

func (s *Store) GetOrdersForSite(ctx context.Context, st site.Site, statuses ...string) ([]Order, error) {
	return s.dao.GetForSite(ctx, st.LocalID, statuses...)
}

// persistFetched guarda la orden traída y publica el cambio si el estado difiere del guardado.
func (s *Store) persistFetched(ctx context.Context, st site.Site, order Order) (Order, error) {
	log := logging.FromContext(ctx, s.logger)

	stored, err := s.dao.Get(ctx, st.LocalID, woo.RemoteID(order.RemoteOrderID))
	if err != nil {
		log.Error("Failed to read stored order", zap.Int64("order_id", order.RemoteOrderID), zap.Error(err))
		return Order{}, err
	}

	saved, err := s.dao.InsertOrUpdate(ctx, order)
	if err != nil {
		log.Error("Failed to persist order", zap.Int64("order_id", order.RemoteOrderID), zap.Error(err))
		return Order{}, err
	}

	var previous *compare.OrderSnapshot
	if stored != nil {
		snapshot := stored.Snapshot()
		previous = &snapshot
	}
	s.publishIfChanged(ctx, st, previous, saved)
	return saved, nil
}

func (s *Store) publishIfChanged(ctx context.Context, st site.Site, previous *compare.OrderSnapshot, current Order) {
	result := compare.CompareOrderStatus(previous, current.Snapshot(), logging.FromContext(ctx, s.logger))
	if !result.Changed || s.emitter == nil {
		return
	}
	s.emitter.Emit(dispatcher.Event{
		Type:         dispatcher.EventOrderStatusChanged,
		LocalSiteID:  st.LocalID,
		RowsAffected: 1,
		TraceID:      logging.TraceID(ctx),
		Payload: StatusChange{
			LocalOrderID: current.LocalID,
			SiteURL:      st.URL,
			Result:       result,
		},
	})
}
