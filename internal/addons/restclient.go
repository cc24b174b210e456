package addons

import (
	"context"
	"net/url"
	"strconv"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
)

const (
	globalGroupsPath = "/wc-product-add-ons/v1/product-add-ons"
	productsPath     = "/wc/v3/products"
)

type RestClient struct {
	client *network.Client
}

func NewRestClient(client *network.Client) *RestClient {
	return &RestClient{client: client}
}

// FetchGlobalAddonGroups: si la extensión no está activa la API responde rest_no_route.
func (r *RestClient) FetchGlobalAddonGroups(ctx context.Context, s site.Site) network.Response[[]AddonGroupDTO] {
	return network.Get[[]AddonGroupDTO](ctx, r.client, s, globalGroupsPath, nil, false)
}

// FetchProductMeta trae sólo id y meta_data del producto.
func (r *RestClient) FetchProductMeta(ctx context.Context, s site.Site, productID int64) network.Response[ProductMetaDTO] {
	params := url.Values{"_fields": {"id,meta_data"}}
	return network.Get[ProductMetaDTO](ctx, r.client, s, productsPath+"/"+strconv.FormatInt(productID, 10), params, false)
}
