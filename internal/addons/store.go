package addons

import (
	"context"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"go.uber.org/zap"
)

type Store struct {
	rest   *RestClient
	dao    *DAO
	logger *zap.Logger
}

func NewStore(client *network.Client, dao *DAO, logger *zap.Logger) *Store {
	return &Store{rest: NewRestClient(client), dao: dao, logger: logger}
}

func (s *Store) FetchGlobalAddonGroups(ctx context.Context, st site.Site) woo.Result[[]AddonGroup] {
	resp := s.rest.FetchGlobalAddonGroups(ctx, st)
	if resp.IsError() {
		return woo.Failure[[]AddonGroup](woo.ToWooError(resp.Err))
	}

	groups := make([]AddonGroup, 0, len(resp.Data))
	for _, dto := range resp.Data {
		groups = append(groups, dto.ToModel())
	}
	if err := s.dao.ReplaceGlobalGroups(ctx, st.LocalID, groups); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist addon groups", zap.Error(err))
		return woo.Failure[[]AddonGroup](woo.PersistenceError(err))
	}
	return woo.Success(groups)
}

func (s *Store) GetGlobalAddonGroups(ctx context.Context, st site.Site) ([]AddonGroup, error) {
	return s.dao.GetGlobalGroups(ctx, st.LocalID)
}

// FetchProductAddons lee la meta _product_addons del producto y la guarda.
func (s *Store) FetchProductAddons(ctx context.Context, st site.Site, productID int64) woo.Result[ProductAddons] {
	if productID <= 0 {
		return woo.Failure[ProductAddons](woo.InvalidParam("product id must be positive"))
	}

	resp := s.rest.FetchProductMeta(ctx, st, productID)
	if resp.IsError() {
		return woo.Failure[ProductAddons](woo.ToWooError(resp.Err))
	}

	product := resp.Data.ToModel()
	if product.ProductID == 0 {
		product.ProductID = productID
	}
	if err := s.dao.UpsertProductAddons(ctx, st.LocalID, product); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist product addons",
			zap.Int64("product_id", productID), zap.Error(err))
		return woo.Failure[ProductAddons](woo.PersistenceError(err))
	}
	return woo.Success(product)
}

func (s *Store) GetProductAddons(ctx context.Context, st site.Site, productID int64) (*ProductAddons, error) {
	return s.dao.GetProductAddons(ctx, st.LocalID, productID)
}

// AddonsForProduct devuelve los add-ons propios del producto seguidos de los de cada grupo
// global que aplique a sus categorías (sin restricción o con intersección), por prioridad.
func (s *Store) AddonsForProduct(ctx context.Context, st site.Site, productAddons []Addon, categoryIDs []int64) ([]Addon, error) {
	groups, err := s.dao.GetGlobalGroups(ctx, st.LocalID)
	if err != nil {
		return nil, err
	}

	out := make([]Addon, 0, len(productAddons))
	out = append(out, productAddons...)
	for _, g := range groups {
		if g.AppliesTo(categoryIDs) {
			out = append(out, g.Addons...)
		}
	}
	return out, nil
}
