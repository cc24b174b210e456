// Package gateways sincroniza los medios de pago (payment gateways) de un sitio.
package gateways

import (
	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
)

// GatewayDTO es la forma que devuelve /wc/v3/payment_gateways. Todo es opcional.
type GatewayDTO struct {
	ID                *string        `json:"id"`
	Title             *string        `json:"title"`
	Description       *string        `json:"description"`
	Order             *convert.Flex  `json:"order"`
	Enabled           *bool          `json:"enabled"`
	MethodTitle       *string        `json:"method_title"`
	MethodDescription *string        `json:"method_description"`
	MethodSupports    []string       `json:"method_supports"`
	Settings          map[string]any `json:"settings"`
}

// Gateway es el modelo de dominio
type Gateway struct {
	GatewayID         string   `json:"gateway_id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Order             int      `json:"order"`
	IsEnabled         bool     `json:"is_enabled"`
	MethodTitle       string   `json:"method_title"`
	MethodDescription string   `json:"method_description"`
	Features          []string `json:"features"`
}

// UpdateGatewayRequest son los campos editables. nil = no se envía.
type UpdateGatewayRequest struct {
	Enabled     *bool   `json:"enabled,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ToModel nunca falla: los campos ausentes quedan en su valor por defecto.
func (dto GatewayDTO) ToModel() Gateway {
	features := make([]string, 0, len(dto.MethodSupports))
	features = append(features, dto.MethodSupports...)
	return Gateway{
		GatewayID:         convert.StringOrEmpty(dto.ID),
		Title:             convert.StringOrEmpty(dto.Title),
		Description:       convert.StringOrEmpty(dto.Description),
		Order:             convert.IntOrZero(dto.Order),
		IsEnabled:         convert.BoolOrFalse(dto.Enabled),
		MethodTitle:       convert.StringOrEmpty(dto.MethodTitle),
		MethodDescription: convert.StringOrEmpty(dto.MethodDescription),
		Features:          features,
	}
}
