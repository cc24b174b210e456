package refunds

import (
	"context"
	"fmt"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/validator"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultPageSize = 25

type Store struct {
	rest   *RestClient
	dao    *DAO
	logger *zap.Logger
}

func NewStore(client *network.Client, dao *DAO, logger *zap.Logger) *Store {
	return &Store{rest: NewRestClient(client), dao: dao, logger: logger}
}

// CreateAmountRefund reembolsa un monto fijo. Un monto negativo se rechaza sin ir a la red.
func (s *Store) CreateAmountRefund(ctx context.Context, st site.Site, orderID int64, amount decimal.Decimal, reason string, autoRefund bool) woo.Result[Refund] {
	if orderID <= 0 {
		return woo.Failure[Refund](woo.InvalidParam("order id must be positive"))
	}
	if amount.IsNegative() {
		return woo.Failure[Refund](woo.InvalidParam("refund amount cannot be negative"))
	}

	resp := s.rest.CreateRefundByAmount(ctx, st, orderID, amount, reason, autoRefund)
	return s.persistOne(ctx, st, orderID, resp)
}

// CreateItemsRefund reembolsa ítems puntuales; el monto es la suma de ítems + impuestos.
func (s *Store) CreateItemsRefund(ctx context.Context, st site.Site, orderID int64, reason string, autoRefund bool, items []ItemRefundRequest, restockItems bool) woo.Result[Refund] {
	if orderID <= 0 {
		return woo.Failure[Refund](woo.InvalidParam("order id must be positive"))
	}
	if len(items) == 0 {
		return woo.Failure[Refund](woo.InvalidParam("at least one item is required"))
	}
	for i, item := range items {
		if err := validator.Struct(item); err != nil {
			return woo.Failure[Refund](woo.InvalidParam(fmt.Sprintf("item %d: %v", i, err)))
		}
		if item.Total().IsNegative() {
			return woo.Failure[Refund](woo.InvalidParam(fmt.Sprintf("item %d: refund total cannot be negative", i)))
		}
	}

	resp := s.rest.CreateRefundByItems(ctx, st, orderID, reason, autoRefund, items, restockItems)
	return s.persistOne(ctx, st, orderID, resp)
}

func (s *Store) FetchRefund(ctx context.Context, st site.Site, orderID, refundID int64) woo.Result[Refund] {
	resp := s.rest.FetchRefund(ctx, st, orderID, refundID)
	return s.persistOne(ctx, st, orderID, resp)
}

// FetchAllRefunds trae una página. La página 1 reemplaza los reembolsos guardados de la orden.
func (s *Store) FetchAllRefunds(ctx context.Context, st site.Site, orderID int64, page, pageSize int) woo.Result[[]Refund] {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	resp := s.rest.FetchAllRefunds(ctx, st, orderID, page, pageSize)
	if resp.IsError() {
		return woo.Failure[[]Refund](woo.ToWooError(resp.Err))
	}

	refunds := make([]Refund, 0, len(resp.Data))
	for _, dto := range resp.Data {
		refunds = append(refunds, dto.ToModel(orderID))
	}

	var err error
	if page == 1 {
		err = s.dao.ReplaceForOrder(ctx, st.LocalID, orderID, refunds)
	} else {
		err = s.dao.Upsert(ctx, st.LocalID, refunds...)
	}
	if err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist refunds",
			zap.Int64("order_id", orderID), zap.Error(err))
		return woo.Failure[[]Refund](woo.PersistenceError(err))
	}
	return woo.Success(refunds)
}

func (s *Store) GetRefund(ctx context.Context, st site.Site, orderID, refundID int64) (*Refund, error) {
	return s.dao.Get(ctx, st.LocalID, orderID, refundID)
}

func (s *Store) GetAllRefunds(ctx context.Context, st site.Site, orderID int64) ([]Refund, error) {
	return s.dao.GetForOrder(ctx, st.LocalID, orderID)
}

func (s *Store) persistOne(ctx context.Context, st site.Site, orderID int64, resp network.Response[RefundDTO]) woo.Result[Refund] {
	log := logging.FromContext(ctx, s.logger)
	if resp.IsError() {
		log.Warn("Refund request failed", zap.Int64("order_id", orderID), zap.String("type", string(resp.Err.Type)))
		return woo.Failure[Refund](woo.ToWooError(resp.Err))
	}

	refund := resp.Data.ToModel(orderID)
	if err := s.dao.Upsert(ctx, st.LocalID, refund); err != nil {
		log.Error("Failed to persist refund", zap.Int64("order_id", orderID), zap.Error(err))
		return woo.Failure[Refund](woo.PersistenceError(err))
	}
	return woo.Success(refund)
}
