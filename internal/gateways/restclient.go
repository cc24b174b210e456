package gateways

import (
	"context"
	"net/url"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
)

const gatewaysPath = "/wc/v3/payment_gateways"

// RestClient hace las llamadas crudas; no persiste ni mapea.
type RestClient struct {
	client *network.Client
}

func NewRestClient(client *network.Client) *RestClient {
	return &RestClient{client: client}
}

func (r *RestClient) FetchGateway(ctx context.Context, s site.Site, gatewayID string) network.Response[GatewayDTO] {
	return network.Get[GatewayDTO](ctx, r.client, s, gatewaysPath+"/"+url.PathEscape(gatewayID), nil, false)
}

func (r *RestClient) FetchAllGateways(ctx context.Context, s site.Site) network.Response[[]GatewayDTO] {
	return network.Get[[]GatewayDTO](ctx, r.client, s, gatewaysPath, nil, false)
}

func (r *RestClient) UpdatePaymentGateway(ctx context.Context, s site.Site, gatewayID string, req UpdateGatewayRequest) network.Response[GatewayDTO] {
	return network.Post[GatewayDTO](ctx, r.client, s, gatewaysPath+"/"+url.PathEscape(gatewayID), req)
}
