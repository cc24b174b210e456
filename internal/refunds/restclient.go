package refunds

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/shopspring/decimal"
)

type RestClient struct {
	client *network.Client
}

func NewRestClient(client *network.Client) *RestClient {
	return &RestClient{client: client}
}

// cuerpo de POST /orders/{id}/refunds
type createRefundBody struct {
	Amount       string           `json:"amount"`
	Reason       string           `json:"reason,omitempty"`
	APIRefund    bool             `json:"api_refund"`
	RestockItems *bool            `json:"restock_items,omitempty"`
	LineItems    []lineItemRefund `json:"line_items,omitempty"`
}

type lineItemRefund struct {
	ID          int64           `json:"id"`
	Quantity    int             `json:"quantity"`
	RefundTotal string          `json:"refund_total"`
	RefundTax   []taxLineRefund `json:"refund_tax,omitempty"`
}

type taxLineRefund struct {
	ID          int64  `json:"id"`
	RefundTotal string `json:"refund_total"`
}

func refundsPath(orderID int64) string {
	return fmt.Sprintf("/wc/v3/orders/%d/refunds", orderID)
}

func (r *RestClient) CreateRefundByAmount(ctx context.Context, s site.Site, orderID int64, amount decimal.Decimal, reason string, autoRefund bool) network.Response[RefundDTO] {
	body := createRefundBody{
		Amount:    convert.DecimalString(amount),
		Reason:    reason,
		APIRefund: autoRefund,
	}
	return network.Post[RefundDTO](ctx, r.client, s, refundsPath(orderID), body)
}

func (r *RestClient) CreateRefundByItems(ctx context.Context, s site.Site, orderID int64, reason string, autoRefund bool, items []ItemRefundRequest, restockItems bool) network.Response[RefundDTO] {
	total := decimal.Zero
	lines := make([]lineItemRefund, 0, len(items))
	for _, item := range items {
		total = total.Add(item.Total())
		line := lineItemRefund{
			ID:          item.ItemID,
			Quantity:    item.Quantity,
			RefundTotal: convert.DecimalString(item.RefundTotal),
		}
		for _, tax := range item.RefundTax {
			line.RefundTax = append(line.RefundTax, taxLineRefund{
				ID:          tax.TaxRateID,
				RefundTotal: convert.DecimalString(tax.RefundTotal),
			})
		}
		lines = append(lines, line)
	}

	body := createRefundBody{
		Amount:       convert.DecimalString(total),
		Reason:       reason,
		APIRefund:    autoRefund,
		RestockItems: &restockItems,
		LineItems:    lines,
	}
	return network.Post[RefundDTO](ctx, r.client, s, refundsPath(orderID), body)
}

func (r *RestClient) FetchRefund(ctx context.Context, s site.Site, orderID, refundID int64) network.Response[RefundDTO] {
	path := refundsPath(orderID) + "/" + strconv.FormatInt(refundID, 10)
	return network.Get[RefundDTO](ctx, r.client, s, path, nil, false)
}

func (r *RestClient) FetchAllRefunds(ctx context.Context, s site.Site, orderID int64, page, pageSize int) network.Response[[]RefundDTO] {
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(pageSize)},
	}
	return network.Get[[]RefundDTO](ctx, r.client, s, refundsPath(orderID), params, false)
}
