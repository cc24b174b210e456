package taxes

import (
	"context"
	"net/url"
	"strconv"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
)

const (
	taxClassesPath = "/wc/v3/taxes/classes"
	taxRatesPath   = "/wc/v3/taxes"
)

type RestClient struct {
	client *network.Client
}

func NewRestClient(client *network.Client) *RestClient {
	return &RestClient{client: client}
}

// FetchTaxClassList usa la cache de respuestas: las clases casi nunca cambian.
func (r *RestClient) FetchTaxClassList(ctx context.Context, s site.Site) network.Response[[]TaxClassDTO] {
	return network.Get[[]TaxClassDTO](ctx, r.client, s, taxClassesPath, nil, true)
}

func (r *RestClient) CreateTaxClass(ctx context.Context, s site.Site, name string) network.Response[TaxClassDTO] {
	return network.Post[TaxClassDTO](ctx, r.client, s, taxClassesPath, map[string]string{"name": name})
}

func (r *RestClient) FetchTaxRateList(ctx context.Context, s site.Site, page, pageSize int) network.Response[[]TaxRateDTO] {
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(pageSize)},
	}
	return network.Get[[]TaxRateDTO](ctx, r.client, s, taxRatesPath, params, false)
}

func (r *RestClient) FetchTaxRate(ctx context.Context, s site.Site, rateID int64) network.Response[TaxRateDTO] {
	return network.Get[TaxRateDTO](ctx, r.client, s, taxRatesPath+"/"+strconv.FormatInt(rateID, 10), nil, false)
}
