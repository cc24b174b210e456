// Package sync trae de una vez todo lo que el servicio guarda de un sitio.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/addons"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/customers"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/gateways"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/orders"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/refunds"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/taxes"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Stores son los stores que participan del sync
type Stores struct {
	Gateways  *gateways.Store
	Taxes     *taxes.Store
	Customers *customers.Store
	Orders    *orders.Store
	Addons    *addons.Store
}

// Entities son las tablas de dominio que cuelgan de un sitio (para AutoMigrate).
func Entities() []any {
	return []any{
		&gateways.GatewayEntity{},
		&taxes.TaxClassEntity{},
		&taxes.TaxRateEntity{},
		&customers.CustomerEntity{},
		&orders.OrderEntity{},
		&orders.LineItemEntity{},
		&refunds.RefundEntity{},
		&addons.AddonGroupEntity{},
		&addons.ProductAddonsEntity{},
	}
}

// StepError es el fallo de un paso del sync
type StepError struct {
	Step string
	Err  *woo.WooError
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Err.Error())
}

// Summary es la cantidad de filas traídas por paso; Skipped lista pasos omitidos
// (p.ej. add-ons sin la extensión instalada).
type Summary struct {
	LocalSiteID int            `json:"local_site_id"`
	Counts      map[string]int `json:"counts"`
	Skipped     []string       `json:"skipped,omitempty"`
	Failed      []string       `json:"failed,omitempty"`
	Duration    string         `json:"duration"`
}

type Syncer struct {
	stores Stores
	logger *zap.Logger
}

func NewSyncer(stores Stores, logger *zap.Logger) *Syncer {
	return &Syncer{stores: stores, logger: logger}
}

type step struct {
	name string
	run  func(ctx context.Context, s site.Site) (int, *woo.WooError)
}

func (s *Syncer) steps() []step {
	return []step{
		{"gateways", func(ctx context.Context, st site.Site) (int, *woo.WooError) {
			r := s.stores.Gateways.FetchAllGateways(ctx, st)
			return len(r.Model), r.Error
		}},
		{"tax_classes", func(ctx context.Context, st site.Site) (int, *woo.WooError) {
			r := s.stores.Taxes.FetchTaxClassList(ctx, st)
			return len(r.Model), r.Error
		}},
		{"tax_rates", func(ctx context.Context, st site.Site) (int, *woo.WooError) {
			r := s.stores.Taxes.FetchTaxRateList(ctx, st, 1, taxes.DefaultPageSize)
			return len(r.Model), r.Error
		}},
		{"customers", func(ctx context.Context, st site.Site) (int, *woo.WooError) {
			r := s.stores.Customers.FetchCustomers(ctx, st, customers.CustomerQuery{Page: 1})
			return len(r.Model), r.Error
		}},
		{"orders", func(ctx context.Context, st site.Site) (int, *woo.WooError) {
			r := s.stores.Orders.FetchOrders(ctx, st, orders.OrderQuery{Page: 1})
			return len(r.Model), r.Error
		}},
		{"addon_groups", func(ctx context.Context, st site.Site) (int, *woo.WooError) {
			r := s.stores.Addons.FetchGlobalAddonGroups(ctx, st)
			return len(r.Model), r.Error
		}},
	}
}

// SyncSite corre todos los pasos aunque alguno falle; el error agrupa los fallos (multierr).
func (s *Syncer) SyncSite(ctx context.Context, st site.Site) (Summary, error) {
	start := time.Now()
	ctx = logging.WithLoggingFields(ctx, logging.TraceID(ctx), st.LocalID)
	log := logging.FromContext(ctx, s.logger)

	summary := Summary{LocalSiteID: st.LocalID, Counts: map[string]int{}}
	var errs error

	for _, step := range s.steps() {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}

		count, wooErr := step.run(ctx, st)
		switch {
		case wooErr == nil:
			summary.Counts[step.name] = count
		case wooErr.Type == woo.ErrorPluginNotActive:
			summary.Skipped = append(summary.Skipped, step.name)
			log.Info("Sync step skipped", zap.String("step", step.name), zap.String("reason", wooErr.Message))
		default:
			summary.Failed = append(summary.Failed, step.name)
			errs = multierr.Append(errs, &StepError{Step: step.name, Err: wooErr})
			log.Warn("Sync step failed", zap.String("step", step.name), zap.String("error_type", string(wooErr.Type)))
		}
	}

	summary.Duration = time.Since(start).String()
	log.Info("Site sync finished",
		zap.Any("counts", summary.Counts),
		zap.Int("failed", len(multierr.Errors(errs))),
		zap.String("duration", summary.Duration),
	)
	return summary, errs
}

// SiteDeleter lo implementan los DAO de dominio
type SiteDeleter interface {
	DeleteForSite(ctx context.Context, localSiteID int) (int64, error)
}

// PurgeSite borra las filas del sitio en todos los DAO; sigue aunque uno falle.
func PurgeSite(ctx context.Context, localSiteID int, daos ...SiteDeleter) (int64, error) {
	var total int64
	var errs error
	for _, dao := range daos {
		n, err := dao.DeleteForSite(ctx, localSiteID)
		total += n
		errs = multierr.Append(errs, err)
	}
	return total, errs
}
