package woo

import "github.com/juancollazo-ch/woo-fluxc-service/internal/convert"

// AddressDTO es el bloque billing/shipping compartido por clientes y órdenes.
type AddressDTO struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Company   *string `json:"company,omitempty"`
	Address1  *string `json:"address_1,omitempty"`
	Address2  *string `json:"address_2,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	Postcode  *string `json:"postcode,omitempty"`
	Country   *string `json:"country,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (dto *AddressDTO) ToModel() Address {
	if dto == nil {
		return Address{}
	}
	return Address{
		FirstName: convert.StringOrEmpty(dto.FirstName),
		LastName:  convert.StringOrEmpty(dto.LastName),
		Company:   convert.StringOrEmpty(dto.Company),
		Address1:  convert.StringOrEmpty(dto.Address1),
		Address2:  convert.StringOrEmpty(dto.Address2),
		City:      convert.StringOrEmpty(dto.City),
		State:     convert.StringOrEmpty(dto.State),
		Postcode:  convert.StringOrEmpty(dto.Postcode),
		Country:   convert.StringOrEmpty(dto.Country),
		Email:     convert.StringOrEmpty(dto.Email),
		Phone:     convert.StringOrEmpty(dto.Phone),
	}
}

// ToDTO arma el bloque para requests de escritura; los vacíos no se envían.
func (a Address) ToDTO() *AddressDTO {
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	return &AddressDTO{
		FirstName: opt(a.FirstName),
		LastName:  opt(a.LastName),
		Company:   opt(a.Company),
		Address1:  opt(a.Address1),
		Address2:  opt(a.Address2),
		City:      opt(a.City),
		State:     opt(a.State),
		Postcode:  opt(a.Postcode),
		Country:   opt(a.Country),
		Email:     opt(a.Email),
		Phone:     opt(a.Phone),
	}
}

// IsEmpty indica que ningún campo está cargado.
func (a Address) IsEmpty() bool {
	return a == Address{}
}
