// Package refunds crea y sincroniza reembolsos de órdenes.
package refunds

import (
	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
	"github.com/shopspring/decimal"
)

type RefundDTO struct {
	ID              *convert.Flex     `json:"id"`
	DateCreatedGMT  *string           `json:"date_created_gmt"`
	Amount          *convert.Flex     `json:"amount"`
	Reason          *string           `json:"reason"`
	RefundedPayment *bool             `json:"refunded_payment"`
	LineItems       []RefundItemDTO   `json:"line_items"`
	ShippingLines   []ShippingLineDTO `json:"shipping_lines"`
	FeeLines        []FeeLineDTO      `json:"fee_lines"`
}

type RefundItemDTO struct {
	ID          *convert.Flex `json:"id"`
	Name        *string       `json:"name"`
	ProductID   *convert.Flex `json:"product_id"`
	VariationID *convert.Flex `json:"variation_id"`
	Quantity    *convert.Flex `json:"quantity"`
	Subtotal    *convert.Flex `json:"subtotal"`
	Total       *convert.Flex `json:"total"`
	TotalTax    *convert.Flex `json:"total_tax"`
	Price       *convert.Flex `json:"price"`
}

type ShippingLineDTO struct {
	ID          *convert.Flex `json:"id"`
	MethodID    *string       `json:"method_id"`
	MethodTitle *string       `json:"method_title"`
	Total       *convert.Flex `json:"total"`
	TotalTax    *convert.Flex `json:"total_tax"`
}

type FeeLineDTO struct {
	ID       *convert.Flex `json:"id"`
	Name     *string       `json:"name"`
	Total    *convert.Flex `json:"total"`
	TotalTax *convert.Flex `json:"total_tax"`
}

// Refund es el modelo de dominio. Los montos de WooCommerce en reembolsos de ítems son negativos.
type Refund struct {
	ID                     int64           `json:"id"`
	OrderID                int64           `json:"order_id"`
	DateCreated            string          `json:"date_created"`
	Amount                 decimal.Decimal `json:"amount"`
	Reason                 string          `json:"reason"`
	AutomaticGatewayRefund bool            `json:"automatic_gateway_refund"`
	Items                  []RefundItem    `json:"items"`
	ShippingLines          []ShippingLine  `json:"shipping_lines"`
	FeeLines               []FeeLine       `json:"fee_lines"`
}

type RefundItem struct {
	ItemID      int64           `json:"item_id"`
	Name        string          `json:"name"`
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Total       decimal.Decimal `json:"total"`
	TotalTax    decimal.Decimal `json:"total_tax"`
	Price       decimal.Decimal `json:"price"`
}

type ShippingLine struct {
	ID          int64           `json:"id"`
	MethodID    string          `json:"method_id"`
	MethodTitle string          `json:"method_title"`
	Total       decimal.Decimal `json:"total"`
	TotalTax    decimal.Decimal `json:"total_tax"`
}

type FeeLine struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Total    decimal.Decimal `json:"total"`
	TotalTax decimal.Decimal `json:"total_tax"`
}

// ToModel mapea el DTO. orderID viene de la ruta: la API no lo incluye en el cuerpo.
func (dto RefundDTO) ToModel(orderID int64) Refund {
	refund := Refund{
		ID:                     convert.Int64OrZero(dto.ID),
		OrderID:                orderID,
		DateCreated:            convert.DateOrEmpty(dto.DateCreatedGMT),
		Amount:                 convert.DecimalOrZero(dto.Amount),
		Reason:                 convert.StringOrEmpty(dto.Reason),
		AutomaticGatewayRefund: convert.BoolOrFalse(dto.RefundedPayment),
		Items:                  make([]RefundItem, 0, len(dto.LineItems)),
		ShippingLines:          make([]ShippingLine, 0, len(dto.ShippingLines)),
		FeeLines:               make([]FeeLine, 0, len(dto.FeeLines)),
	}
	for _, item := range dto.LineItems {
		refund.Items = append(refund.Items, RefundItem{
			ItemID:      convert.Int64OrZero(item.ID),
			Name:        convert.StringOrEmpty(item.Name),
			ProductID:   convert.Int64OrZero(item.ProductID),
			VariationID: convert.Int64OrZero(item.VariationID),
			Quantity:    convert.IntOrZero(item.Quantity),
			Subtotal:    convert.DecimalOrZero(item.Subtotal),
			Total:       convert.DecimalOrZero(item.Total),
			TotalTax:    convert.DecimalOrZero(item.TotalTax),
			Price:       convert.DecimalOrZero(item.Price),
		})
	}
	for _, line := range dto.ShippingLines {
		refund.ShippingLines = append(refund.ShippingLines, ShippingLine{
			ID:          convert.Int64OrZero(line.ID),
			MethodID:    convert.StringOrEmpty(line.MethodID),
			MethodTitle: convert.StringOrEmpty(line.MethodTitle),
			Total:       convert.DecimalOrZero(line.Total),
			TotalTax:    convert.DecimalOrZero(line.TotalTax),
		})
	}
	for _, line := range dto.FeeLines {
		refund.FeeLines = append(refund.FeeLines, FeeLine{
			ID:       convert.Int64OrZero(line.ID),
			Name:     convert.StringOrEmpty(line.Name),
			Total:    convert.DecimalOrZero(line.Total),
			TotalTax: convert.DecimalOrZero(line.TotalTax),
		})
	}
	return refund
}

// ItemRefundRequest es un ítem a reembolsar (ItemID es el id del line item en la orden).
type ItemRefundRequest struct {
	ItemID      int64             `json:"item_id" validate:"gt=0"`
	Quantity    int               `json:"quantity" validate:"gte=0"`
	RefundTotal decimal.Decimal   `json:"refund_total"`
	RefundTax   []TaxRefundAmount `json:"refund_tax"`
}

type TaxRefundAmount struct {
	TaxRateID   int64           `json:"id"`
	RefundTotal decimal.Decimal `json:"refund_total"`
}

// Total suma el monto del ítem más sus impuestos.
func (r ItemRefundRequest) Total() decimal.Decimal {
	total := r.RefundTotal
	for _, tax := range r.RefundTax {
		total = total.Add(tax.RefundTotal)
	}
	return total
}

// linesDTO es la forma inversa de las líneas; se usa para guardarlas sin perder la escala de los montos.
func (r Refund) linesDTO() RefundDTO {
	dto := RefundDTO{
		LineItems:     make([]RefundItemDTO, 0, len(r.Items)),
		ShippingLines: make([]ShippingLineDTO, 0, len(r.ShippingLines)),
		FeeLines:      make([]FeeLineDTO, 0, len(r.FeeLines)),
	}
	for _, item := range r.Items {
		dto.LineItems = append(dto.LineItems, RefundItemDTO{
			ID:          convert.NewFlex(convert.Int64String(item.ItemID)),
			Name:        &item.Name,
			ProductID:   convert.NewFlex(convert.Int64String(item.ProductID)),
			VariationID: convert.NewFlex(convert.Int64String(item.VariationID)),
			Quantity:    convert.NewFlex(convert.Int64String(int64(item.Quantity))),
			Subtotal:    convert.NewFlex(convert.AmountString(item.Subtotal)),
			Total:       convert.NewFlex(convert.AmountString(item.Total)),
			TotalTax:    convert.NewFlex(convert.AmountString(item.TotalTax)),
			Price:       convert.NewFlex(convert.AmountString(item.Price)),
		})
	}
	for _, line := range r.ShippingLines {
		dto.ShippingLines = append(dto.ShippingLines, ShippingLineDTO{
			ID:          convert.NewFlex(convert.Int64String(line.ID)),
			MethodID:    &line.MethodID,
			MethodTitle: &line.MethodTitle,
			Total:       convert.NewFlex(convert.AmountString(line.Total)),
			TotalTax:    convert.NewFlex(convert.AmountString(line.TotalTax)),
		})
	}
	for _, line := range r.FeeLines {
		dto.FeeLines = append(dto.FeeLines, FeeLineDTO{
			ID:       convert.NewFlex(convert.Int64String(line.ID)),
			Name:     &line.Name,
			Total:    convert.NewFlex(convert.AmountString(line.Total)),
			TotalTax: convert.NewFlex(convert.AmountString(line.TotalTax)),
		})
	}
	return dto
}
