// Package taxes sincroniza las clases y tasas de impuesto de un sitio.
package taxes

import (
	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
)

type TaxClassDTO struct {
	Slug *string `json:"slug"`
	Name *string `json:"name"`
}

type TaxClass struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (dto TaxClassDTO) ToModel() TaxClass {
	return TaxClass{
		Name: convert.StringOrEmpty(dto.Name),
		Slug: convert.StringOrEmpty(dto.Slug),
	}
}

// TaxRateDTO: postcode/city son legacy; postcodes/cities los reemplazan cuando vienen.
type TaxRateDTO struct {
	ID        *convert.Flex `json:"id"`
	Country   *string       `json:"country"`
	State     *string       `json:"state"`
	Postcode  *string       `json:"postcode"`
	City      *string       `json:"city"`
	Postcodes []string      `json:"postcodes"`
	Cities    []string      `json:"cities"`
	Rate      *convert.Flex `json:"rate"`
	Name      *string       `json:"name"`
	Priority  *convert.Flex `json:"priority"`
	Compound  *bool         `json:"compound"`
	Shipping  *bool         `json:"shipping"`
	Order     *convert.Flex `json:"order"`
	Class     *string       `json:"class"`
}

type TaxRate struct {
	ID       int64  `json:"id"`
	Country  string `json:"country"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	City     string `json:"city"`
	Rate     string `json:"rate"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Compound bool   `json:"compound"`
	Shipping bool   `json:"shipping"`
	Order    int    `json:"order"`
	TaxClass string `json:"tax_class"`
}

func (dto TaxRateDTO) ToModel() TaxRate {
	postcode := convert.StringOrEmpty(dto.Postcode)
	if len(dto.Postcodes) > 0 {
		postcode = convert.JoinNonEmpty(dto.Postcodes, ";")
	}
	city := convert.StringOrEmpty(dto.City)
	if len(dto.Cities) > 0 {
		city = convert.JoinNonEmpty(dto.Cities, ";")
	}
	return TaxRate{
		ID:       convert.Int64OrZero(dto.ID),
		Country:  convert.StringOrEmpty(dto.Country),
		State:    convert.StringOrEmpty(dto.State),
		Postcode: postcode,
		City:     city,
		Rate:     dto.Rate.String(),
		Name:     convert.StringOrEmpty(dto.Name),
		Priority: convert.IntOrZero(dto.Priority),
		Compound: convert.BoolOrFalse(dto.Compound),
		Shipping: convert.BoolOrFalse(dto.Shipping),
		Order:    convert.IntOrZero(dto.Order),
		TaxClass: convert.StringOrEmpty(dto.Class),
	}
}
