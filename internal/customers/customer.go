// Package customers sincroniza y crea clientes de WooCommerce.
package customers

import (
	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
)

type CustomerDTO struct {
	ID               *convert.Flex   `json:"id,omitempty"`
	DateCreatedGMT   *string         `json:"date_created_gmt,omitempty"`
	Email            *string         `json:"email,omitempty"`
	FirstName        *string         `json:"first_name,omitempty"`
	LastName         *string         `json:"last_name,omitempty"`
	Role             *string         `json:"role,omitempty"`
	Username         *string         `json:"username,omitempty"`
	Password         *string         `json:"password,omitempty"`
	AvatarURL        *string         `json:"avatar_url,omitempty"`
	IsPayingCustomer *bool           `json:"is_paying_customer,omitempty"`
	Billing          *woo.AddressDTO `json:"billing,omitempty"`
	Shipping         *woo.AddressDTO `json:"shipping,omitempty"`
}

type Customer struct {
	RemoteCustomerID int64       `json:"remote_customer_id"`
	DateCreated      string      `json:"date_created"`
	Email            string      `json:"email" validate:"required,email"`
	FirstName        string      `json:"first_name"`
	LastName         string      `json:"last_name"`
	Username         string      `json:"username"`
	Role             string      `json:"role"`
	AvatarURL        string      `json:"avatar_url"`
	IsPayingCustomer bool        `json:"is_paying_customer"`
	Billing          woo.Address `json:"billing"`
	Shipping         woo.Address `json:"shipping"`
}

func (dto CustomerDTO) ToModel() Customer {
	return Customer{
		RemoteCustomerID: convert.Int64OrZero(dto.ID),
		DateCreated:      convert.DateOrEmpty(dto.DateCreatedGMT),
		Email:            convert.StringOrEmpty(dto.Email),
		FirstName:        convert.StringOrEmpty(dto.FirstName),
		LastName:         convert.StringOrEmpty(dto.LastName),
		Username:         convert.StringOrEmpty(dto.Username),
		Role:             convert.StringOrEmpty(dto.Role),
		AvatarURL:        convert.StringOrEmpty(dto.AvatarURL),
		IsPayingCustomer: convert.BoolOrFalse(dto.IsPayingCustomer),
		Billing:          dto.Billing.ToModel(),
		Shipping:         dto.Shipping.ToModel(),
	}
}

// createDTO arma el cuerpo de POST /customers: sólo campos escribibles.
func createDTO(c Customer) CustomerDTO {
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	dto := CustomerDTO{
		Email:     opt(c.Email),
		FirstName: opt(c.FirstName),
		LastName:  opt(c.LastName),
		Username:  opt(c.Username),
	}
	if !c.Billing.IsEmpty() {
		dto.Billing = c.Billing.ToDTO()
	}
	if !c.Shipping.IsEmpty() {
		dto.Shipping = c.Shipping.ToDTO()
	}
	return dto
}

// CustomerQuery son los filtros de GET /customers
type CustomerQuery struct {
	Page      int     `json:"page"`
	PageSize  int     `json:"page_size"`
	Search    string  `json:"search,omitempty"`
	Email     string  `json:"email,omitempty" validate:"omitempty,email"`
	Role      string  `json:"role,omitempty"`
	RemoteIDs []int64 `json:"remote_ids,omitempty"`
}

// IsUnfiltered indica que la consulta trae el listado completo del sitio.
func (q CustomerQuery) IsUnfiltered() bool {
	return q.Search == "" && q.Email == "" && q.Role == "" && len(q.RemoteIDs) == 0
}
