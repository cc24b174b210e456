package customers

import (
	"context"

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

type Store struct {
	rest   *RestClient
	dao    *DAO
	logger *zap.Logger
}

func NewStore(client *network.Client, dao *DAO, logger *zap.Logger) *Store {
	return &Store{rest: NewRestClient(client), dao: dao, logger: logger}
}

func (s *Store) FetchSingleCustomer(ctx context.Context, st site.Site, remoteID int64) woo.Result[Customer] {
	if remoteID <= 0 {
		return woo.Failure[Customer](woo.InvalidParam("customer id must be positive"))
	}

	resp := s.rest.FetchSingleCustomer(ctx, st, remoteID)
	if resp.IsError() {
		return woo.Failure[Customer](woo.ToWooError(resp.Err))
	}

	customer := resp.Data.ToModel()
	if err := s.dao.InsertOrUpdate(ctx, st.LocalID, customer); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist customer",
			zap.Int64("customer_id", remoteID), zap.Error(err))
		return woo.Failure[Customer](woo.PersistenceError(err))
	}
	return woo.Success(customer)
}

// FetchCustomers trae una página. Página 1 sin filtros reemplaza el conjunto guardado del sitio;
// las búsquedas filtradas sólo agregan o actualizan.
func (s *Store) FetchCustomers(ctx context.Context, st site.Site, q CustomerQuery) woo.Result[[]Customer] {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > maxPageSize {
		q.PageSize = DefaultPageSize
	}
	if err := validator.Struct(q); err != nil {
		return woo.Failure[[]Customer](woo.InvalidParam(err.Error()))
	}

	resp := s.rest.FetchCustomers(ctx, st, q)
	if resp.IsError() {
		return woo.Failure[[]Customer](woo.ToWooError(resp.Err))
	}

	customers := make([]Customer, 0, len(resp.Data))
	for _, dto := range resp.Data {
		customers = append(customers, dto.ToModel())
	}

	var err error
	if q.Page == 1 && q.IsUnfiltered() {
		err = s.dao.Replace(ctx, st.LocalID, customers)
	} else {
		err = s.dao.InsertOrUpdate(ctx, st.LocalID, customers...)
	}
	if err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist customers", zap.Error(err))
		return woo.Failure[[]Customer](woo.PersistenceError(err))
	}
	return woo.Success(customers)
}

func (s *Store) CreateCustomer(ctx context.Context, st site.Site, c Customer) woo.Result[Customer] {
	if err := validator.Struct(c); err != nil {
		return woo.Failure[Customer](woo.InvalidParam(err.Error()))
	}

	resp := s.rest.CreateCustomer(ctx, st, c)
	if resp.IsError() {
		return woo.Failure[Customer](woo.ToWooError(resp.Err))
	}

	created := resp.Data.ToModel()
	if err := s.dao.InsertOrUpdate(ctx, st.LocalID, created); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist created customer", zap.Error(err))
		return woo.Failure[Customer](woo.PersistenceError(err))
	}
	logging.FromContext(ctx, s.logger).Info("Customer created", zap.Int64("customer_id", created.RemoteCustomerID))
	return woo.Success(created)
}

func (s *Store) GetCustomerByRemoteID(ctx context.Context, st site.Site, remoteID int64) (*Customer, error) {
	return s.dao.Get(ctx, st.LocalID, remoteID)
}

func (s *Store) GetCustomersForSite(ctx context.Context, st site.Site) ([]Customer, error) {
	return s.dao.GetForSite(ctx, st.LocalID)
}
