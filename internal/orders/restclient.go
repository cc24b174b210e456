package orders

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/validator"
)

const ordersPath = "/wc/v3/orders"

type RestClient struct {
	client *network.Client
}

func NewRestClient(client *network.Client) *RestClient {
	return &RestClient{client: client}
}

func orderPath(remoteID int64) string {
	return ordersPath + "/" + strconv.FormatInt(remoteID, 10)
}

func (r *RestClient) FetchOrders(ctx context.Context, s site.Site, q OrderQuery) network.Response[[]OrderDTO] {
	params := url.Values{
		"page":     {strconv.Itoa(q.Page)},
		"per_page": {strconv.Itoa(q.PageSize)},
		"orderby":  {"date"},
		"order":    {"desc"},
		"status":   {"any"},
	}
	if len(q.Statuses) > 0 {
		params.Set("status", strings.Join(q.Statuses, ","))
	}
	if after := validator.NormalizeDateFilter(q.After); after != "" {
		params.Set("after", after)
	}
	if before := validator.NormalizeDateFilter(q.Before); before != "" {
		params.Set("before", before)
	}
	return network.Get[[]OrderDTO](ctx, r.client, s, ordersPath, params, false)
}

func (r *RestClient) FetchSingleOrder(ctx context.Context, s site.Site, remoteID int64) network.Response[OrderDTO] {
	return network.Get[OrderDTO](ctx, r.client, s, orderPath(remoteID), nil, false)
}

func (r *RestClient) UpdateOrderStatus(ctx context.Context, s site.Site, remoteID int64, status string) network.Response[OrderDTO] {
	return network.Put[OrderDTO](ctx, r.client, s, orderPath(remoteID), map[string]string{"status": status})
}

func (r *RestClient) CreateOrder(ctx context.Context, s site.Site, req CreateOrderRequest) network.Response[OrderDTO] {
	return network.Post[OrderDTO](ctx, r.client, s, ordersPath, req)
}

// DeleteOrder sin force manda la orden a la papelera.
func (r *RestClient) DeleteOrder(ctx context.Context, s site.Site, remoteID int64, force bool) network.Response[OrderDTO] {
	params := url.Values{"force": {strconv.FormatBool(force)}}
	return network.Delete[OrderDTO](ctx, r.client, s, orderPath(remoteID), params)
}
