package taxes

import (
	"context"
	"strings"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 100
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

func (s *Store) FetchTaxClassList(ctx context.Context, st site.Site) woo.Result[[]TaxClass] {
	resp := s.rest.FetchTaxClassList(ctx, st)
	if resp.IsError() {
		return woo.Failure[[]TaxClass](woo.ToWooError(resp.Err))
	}

	classes := make([]TaxClass, 0, len(resp.Data))
	for _, dto := range resp.Data {
		classes = append(classes, dto.ToModel())
	}
	if err := s.dao.ReplaceTaxClasses(ctx, st.LocalID, classes); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist tax classes", zap.Error(err))
		return woo.Failure[[]TaxClass](woo.PersistenceError(err))
	}
	return woo.Success(classes)
}

func (s *Store) CreateTaxClass(ctx context.Context, st site.Site, name string) woo.Result[TaxClass] {
	name = strings.TrimSpace(name)
	if name == "" {
		return woo.Failure[TaxClass](woo.InvalidParam("tax class name is required"))
	}

	resp := s.rest.CreateTaxClass(ctx, st, name)
	if resp.IsError() {
		return woo.Failure[TaxClass](woo.ToWooError(resp.Err))
	}

	class := resp.Data.ToModel()
	if err := s.dao.InsertTaxClass(ctx, st.LocalID, class); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist tax class", zap.Error(err))
		return woo.Failure[TaxClass](woo.PersistenceError(err))
	}
	return woo.Success(class)
}

func (s *Store) GetTaxClassListForSite(ctx context.Context, st site.Site) ([]TaxClass, error) {
	return s.dao.GetTaxClasses(ctx, st.LocalID)
}

// FetchTaxRateList trae una página; la página 1 vacía primero las tasas guardadas del sitio.
func (s *Store) FetchTaxRateList(ctx context.Context, st site.Site, page, pageSize int) woo.Result[[]TaxRate] {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = DefaultPageSize
	}

	resp := s.rest.FetchTaxRateList(ctx, st, page, pageSize)
	if resp.IsError() {
		return woo.Failure[[]TaxRate](woo.ToWooError(resp.Err))
	}

	rates := make([]TaxRate, 0, len(resp.Data))
	for _, dto := range resp.Data {
		rates = append(rates, dto.ToModel())
	}
	if err := s.dao.UpsertTaxRates(ctx, st.LocalID, rates, page == 1); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist tax rates", zap.Int("page", page), zap.Error(err))
		return woo.Failure[[]TaxRate](woo.PersistenceError(err))
	}
	return woo.Success(rates)
}

func (s *Store) FetchTaxRate(ctx context.Context, st site.Site, rateID int64) woo.Result[TaxRate] {
	if rateID <= 0 {
		return woo.Failure[TaxRate](woo.InvalidParam("tax rate id must be positive"))
	}

	resp := s.rest.FetchTaxRate(ctx, st, rateID)
	if resp.IsError() {
		return woo.Failure[TaxRate](woo.ToWooError(resp.Err))
	}

	rate := resp.Data.ToModel()
	if err := s.dao.UpsertTaxRates(ctx, st.LocalID, []TaxRate{rate}, false); err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to persist tax rate", zap.Int64("rate_id", rateID), zap.Error(err))
		return woo.Failure[TaxRate](woo.PersistenceError(err))
	}
	return woo.Success(rate)
}

func (s *Store) GetTaxRate(ctx context.Context, st site.Site, rateID int64) (*TaxRate, error) {
	return s.dao.GetTaxRate(ctx, st.LocalID, rateID)
}

func (s *Store) GetTaxRateList(ctx context.Context, st site.Site) ([]TaxRate, error) {
	return s.dao.GetTaxRates(ctx, st.LocalID, "")
}

// GetTaxRatesForClass filtra por slug de clase ("standard", "reduced-rate").
func (s *Store) GetTaxRatesForClass(ctx context.Context, st site.Site, class string) ([]TaxRate, error) {
	return s.dao.GetTaxRates(ctx, st.LocalID, class)
}
