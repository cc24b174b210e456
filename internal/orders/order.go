// Package orders sincroniza órdenes y sus line items, y detecta cambios de estado.
package orders

import (
	"github.com/juancollazo-ch/woo-fluxc-service/internal/compare"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/shopspring/decimal"
)

// Estados de orden de WooCommerce
const (
	StatusPending       = "pending"
	StatusProcessing    = "processing"
	StatusOnHold        = "on-hold"
	StatusCompleted     = "completed"
	StatusCancelled     = "cancelled"
	StatusRefunded      = "refunded"
	StatusFailed        = "failed"
	StatusCheckoutDraft = "checkout-draft"
	StatusTrash         = "trash"
)

// statusLocalDraft marca la fila local mientras el POST de creación está en vuelo
const statusLocalDraft = "auto-draft"

type OrderDTO struct {
	ID                 *convert.Flex   `json:"id"`
	Number             *string         `json:"number"`
	Status             *string         `json:"status"`
	Currency           *string         `json:"currency"`
	DateCreatedGMT     *string         `json:"date_created_gmt"`
	DateModifiedGMT    *string         `json:"date_modified_gmt"`
	DatePaidGMT        *string         `json:"date_paid_gmt"`
	Total              *convert.Flex   `json:"total"`
	TotalTax           *convert.Flex   `json:"total_tax"`
	ShippingTotal      *convert.Flex   `json:"shipping_total"`
	DiscountTotal      *convert.Flex   `json:"discount_total"`
	CustomerID         *convert.Flex   `json:"customer_id"`
	CustomerNote       *string         `json:"customer_note"`
	PaymentMethod      *string         `json:"payment_method"`
	PaymentMethodTitle *string         `json:"payment_method_title"`
	Billing            *woo.AddressDTO `json:"billing"`
	Shipping           *woo.AddressDTO `json:"shipping"`
	LineItems          []LineItemDTO   `json:"line_items"`
}

type LineItemDTO struct {
	ID          *convert.Flex `json:"id"`
	ProductID   *convert.Flex `json:"product_id"`
	VariationID *convert.Flex `json:"variation_id"`
	Name        *string       `json:"name"`
	SKU         *string       `json:"sku"`
	Quantity    *convert.Flex `json:"quantity"`
	Subtotal    *convert.Flex `json:"subtotal"`
	Total       *convert.Flex `json:"total"`
	TotalTax    *convert.Flex `json:"total_tax"`
	Price       *convert.Flex `json:"price"`
}

type Order struct {
	LocalID            int64           `json:"local_id"`
	LocalSiteID        int             `json:"local_site_id"`
	RemoteOrderID      int64           `json:"remote_order_id"`
	Number             string          `json:"number"`
	Status             string          `json:"status"`
	Currency           string          `json:"currency"`
	DateCreated        string          `json:"date_created"`
	DateModified       string          `json:"date_modified"`
	DatePaid           string          `json:"date_paid"`
	Total              decimal.Decimal `json:"total"`
	TotalTax           decimal.Decimal `json:"total_tax"`
	ShippingTotal      decimal.Decimal `json:"shipping_total"`
	DiscountTotal      decimal.Decimal `json:"discount_total"`
	CustomerID         int64           `json:"customer_id"`
	CustomerNote       string          `json:"customer_note"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
	Billing            woo.Address     `json:"billing"`
	Shipping           woo.Address     `json:"shipping"`
	LineItems          []LineItem      `json:"line_items"`
}

type LineItem struct {
	RemoteItemID int64           `json:"remote_item_id"`
	ProductID    int64           `json:"product_id"`
	VariationID  int64           `json:"variation_id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Total        decimal.Decimal `json:"total"`
	TotalTax     decimal.Decimal `json:"total_tax"`
	Price        decimal.Decimal `json:"price"`
}

// IsLocalDraft indica una orden creada localmente que todavía no tiene id remoto.
func (o Order) IsLocalDraft() bool {
	return o.RemoteOrderID == 0
}

// Snapshot es la vista de la orden que usa compare
func (o Order) Snapshot() compare.OrderSnapshot {
	names := make([]string, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		names = append(names, item.Name)
	}
	return compare.OrderSnapshot{
		RemoteOrderID: o.RemoteOrderID,
		Number:        o.Number,
		Status:        o.Status,
		ProductNames:  names,
	}
}

func (dto OrderDTO) ToModel(localSiteID int) Order {
	order := Order{
		LocalSiteID:        localSiteID,
		RemoteOrderID:      convert.Int64OrZero(dto.ID),
		Number:             convert.StringOrEmpty(dto.Number),
		Status:             convert.StringOrEmpty(dto.Status),
		Currency:           convert.StringOrEmpty(dto.Currency),
		DateCreated:        convert.DateOrEmpty(dto.DateCreatedGMT),
		DateModified:       convert.DateOrEmpty(dto.DateModifiedGMT),
		DatePaid:           convert.DateOrEmpty(dto.DatePaidGMT),
		Total:              convert.DecimalOrZero(dto.Total),
		TotalTax:           convert.DecimalOrZero(dto.TotalTax),
		ShippingTotal:      convert.DecimalOrZero(dto.ShippingTotal),
		DiscountTotal:      convert.DecimalOrZero(dto.DiscountTotal),
		CustomerID:         convert.Int64OrZero(dto.CustomerID),
		CustomerNote:       convert.StringOrEmpty(dto.CustomerNote),
		PaymentMethod:      convert.StringOrEmpty(dto.PaymentMethod),
		PaymentMethodTitle: convert.StringOrEmpty(dto.PaymentMethodTitle),
		Billing:            dto.Billing.ToModel(),
		Shipping:           dto.Shipping.ToModel(),
		LineItems:          make([]LineItem, 0, len(dto.LineItems)),
	}
	if order.Number == "" && order.RemoteOrderID > 0 {
		order.Number = convert.Int64String(order.RemoteOrderID)
	}
	for _, item := range dto.LineItems {
		order.LineItems = append(order.LineItems, LineItem{
			RemoteItemID: convert.Int64OrZero(item.ID),
			ProductID:    convert.Int64OrZero(item.ProductID),
			VariationID:  convert.Int64OrZero(item.VariationID),
			Name:         convert.StringOrEmpty(item.Name),
			SKU:          convert.StringOrEmpty(item.SKU),
			Quantity:     convert.IntOrZero(item.Quantity),
			Subtotal:     convert.DecimalOrZero(item.Subtotal),
			Total:        convert.DecimalOrZero(item.Total),
			TotalTax:     convert.DecimalOrZero(item.TotalTax),
			Price:        convert.DecimalOrZero(item.Price),
		})
	}
	return order
}

// CreateOrderRequest es el cuerpo de POST /orders
type CreateOrderRequest struct {
	Status             string            `json:"status,omitempty" validate:"omitempty,oneof=pending processing on-hold completed cancelled refunded failed checkout-draft"`
	Currency           string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	CustomerID         int64             `json:"customer_id,omitempty" validate:"gte=0"`
	CustomerNote       string            `json:"customer_note,omitempty"`
	PaymentMethod      string            `json:"payment_method,omitempty"`
	PaymentMethodTitle string            `json:"payment_method_title,omitempty"`
	SetPaid            bool              `json:"set_paid,omitempty"`
	Billing            *woo.AddressDTO   `json:"billing,omitempty"`
	Shipping           *woo.AddressDTO   `json:"shipping,omitempty"`
	LineItems          []LineItemRequest `json:"line_items,omitempty" validate:"dive"`
}

type LineItemRequest struct {
	ProductID   int64 `json:"product_id" validate:"gt=0"`
	VariationID int64 `json:"variation_id,omitempty" validate:"gte=0"`
	Quantity    int   `json:"quantity" validate:"gt=0"`
}

// draft es la fila local que representa la orden mientras se crea
func (r CreateOrderRequest) draft(localSiteID int) Order {
	order := Order{
		LocalSiteID:        localSiteID,
		Status:             statusLocalDraft,
		Currency:           r.Currency,
		CustomerID:         r.CustomerID,
		CustomerNote:       r.CustomerNote,
		PaymentMethod:      r.PaymentMethod,
		PaymentMethodTitle: r.PaymentMethodTitle,
		Billing:            r.Billing.ToModel(),
		Shipping:           r.Shipping.ToModel(),
		LineItems:          make([]LineItem, 0, len(r.LineItems)),
	}
	for _, item := range r.LineItems {
		order.LineItems = append(order.LineItems, LineItem{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
		})
	}
	return order
}

// OrderQuery son los filtros de GET /orders. Fechas en YYYY-MM-DD o RFC3339.
type OrderQuery struct {
	Page     int      `json:"page" validate:"gte=0"`
	PageSize int      `json:"page_size" validate:"gte=0,lte=100"`
	Statuses []string `json:"statuses,omitempty"`
	After    string   `json:"after,omitempty" validate:"datefilter"`
	Before   string   `json:"before,omitempty" validate:"datefilter"`
}
