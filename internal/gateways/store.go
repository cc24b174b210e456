package gateways

import (
	"context"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"go.uber.org/zap"
)

// Store combina RestClient + DAO: fetch, mapear, persistir y devolver el resultado.
type Store struct {
	rest   *RestClient
	dao    *DAO
	logger *zap.Logger
}

func NewStore(client *network.Client, dao *DAO, logger *zap.Logger) *Store {
	return &Store{rest: NewRestClient(client), dao: dao, logger: logger}
}

func (s *Store) FetchGateway(ctx context.Context, st site.Site, gatewayID string) woo.Result[Gateway] {
	resp := s.rest.FetchGateway(ctx, st, gatewayID)
	if resp.IsError() {
		return woo.Failure[Gateway](woo.ToWooError(resp.Err))
	}
	return s.persist(ctx, st, resp.Data.ToModel())
}

func (s *Store) FetchAllGateways(ctx context.Context, st site.Site) woo.Result[[]Gateway] {
	log := logging.FromContext(ctx, s.logger)

	resp := s.rest.FetchAllGateways(ctx, st)
	if resp.IsError() {
		return woo.Failure[[]Gateway](woo.ToWooError(resp.Err))
	}

	gateways := make([]Gateway, 0, len(resp.Data))
	for _, dto := range resp.Data {
		gateways = append(gateways, dto.ToModel())
	}
	if err := s.dao.UpsertAll(ctx, st.LocalID, gateways); err != nil {
		log.Error("Failed to persist gateways", zap.Error(err))
		return woo.Failure[[]Gateway](woo.PersistenceError(err))
	}

	log.Info("Gateways fetched", zap.Int("count", len(gateways)))
	return woo.Success(gateways)
}

func (s *Store) UpdatePaymentGateway(ctx context.Context, st site.Site, gatewayID string, req UpdateGatewayRequest) woo.Result[Gateway] {
	resp := s.rest.UpdatePaymentGateway(ctx, st, gatewayID, req)
	if resp.IsError() {
		return woo.Failure[Gateway](woo.ToWooError(resp.Err))
	}
	return s.persist(ctx, st, resp.Data.ToModel())
}

// GetGateway lee de la base local; nil si no existe.
func (s *Store) GetGateway(ctx context.Context, st site.Site, gatewayID string) (*Gateway, error) {
	return s.dao.Get(ctx, st.LocalID, gatewayID)
}

func (s *Store) GetAllGateways(ctx context.Context, st site.Site) ([]Gateway, error) {
	return s.dao.GetAll(ctx, st.LocalID)
}

func (s *Store) persist(ctx context.Context, st site.Site, g Gateway) woo.Result[Gateway] {
	if err := s.dao.Upsert(ctx, st.LocalID, g); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist gateway",
			zap.String("gateway_id", g.GatewayID), zap.Error(err))
		return woo.Failure[Gateway](woo.PersistenceError(err))
	}
	return woo.Success(g)
}
