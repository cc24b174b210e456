package customers

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
)

const customersPath = "/wc/v3/customers"

type RestClient struct {
	client *network.Client
}

func NewRestClient(client *network.Client) *RestClient {
	return &RestClient{client: client}
}

func (r *RestClient) FetchSingleCustomer(ctx context.Context, s site.Site, remoteID int64) network.Response[CustomerDTO] {
	return network.Get[CustomerDTO](ctx, r.client, s, customersPath+"/"+strconv.FormatInt(remoteID, 10), nil, false)
}

func (r *RestClient) FetchCustomers(ctx context.Context, s site.Site, q CustomerQuery) network.Response[[]CustomerDTO] {
	params := url.Values{
		"page":     {strconv.Itoa(q.Page)},
		"per_page": {strconv.Itoa(q.PageSize)},
		"orderby":  {"id"},
		"order":    {"desc"},
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Email != "" {
		params.Set("email", q.Email)
	}
	if q.Role != "" {
		params.Set("role", q.Role)
	} else {
		params.Set("role", "all")
	}
	if len(q.RemoteIDs) > 0 {
		ids := make([]string, 0, len(q.RemoteIDs))
		for _, id := range q.RemoteIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		params.Set("include", strings.Join(ids, ","))
	}
	return network.Get[[]CustomerDTO](ctx, r.client, s, customersPath, params, false)
}

func (r *RestClient) CreateCustomer(ctx context.Context, s site.Site, c Customer) network.Response[CustomerDTO] {
	return network.Post[CustomerDTO](ctx, r.client, s, customersPath, createDTO(c))
}
