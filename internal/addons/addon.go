// Package addons mapea y guarda los add-ons de producto (extensión Product Add-Ons):
// los grupos globales del sitio y los add-ons propios de cada producto.
package addons

import "github.com/shopspring/decimal"

type AddonType string

const (
	TypeCheckbox        AddonType = "checkbox"
	TypeMultipleChoice  AddonType = "multiple_choice"
	TypeCustomText      AddonType = "custom_text"
	TypeCustomTextArea  AddonType = "custom_textarea"
	TypeFileUpload      AddonType = "file_upload"
	TypeCustomPrice     AddonType = "custom_price"
	TypeInputMultiplier AddonType = "input_multiplier"
	TypeHeading         AddonType = "heading"
	TypeDatePicker      AddonType = "datepicker"
)

type PriceType string

const (
	PriceFlatFee         PriceType = "flat_fee"
	PriceQuantityBased   PriceType = "quantity_based"
	PricePercentageBased PriceType = "percentage_based"
)

type TitleFormat string

const (
	TitleLabel   TitleFormat = "label"
	TitleHeading TitleFormat = "heading"
	TitleHide    TitleFormat = "hide"
)

type Display string

const (
	DisplayDropdown    Display = "select"
	DisplayRadioButton Display = "radiobutton"
	DisplayImages      Display = "images"
)

type Restriction string

const (
	RestrictionAnyText            Restriction = "any_text"
	RestrictionOnlyLetters        Restriction = "only_letters"
	RestrictionOnlyNumbers        Restriction = "only_numbers"
	RestrictionOnlyLettersNumbers Restriction = "only_letters_numbers"
	RestrictionEmail              Restriction = "email"
)

// Option es una opción elegible (checkbox, multiple choice) con su precio.
type Option struct {
	Label     string    `json:"label"`
	Price     string    `json:"price"`
	PriceType PriceType `json:"price_type"`
	ImageID   string    `json:"image_id,omitempty"`
}

// Base son los campos comunes a todos los tipos.
type Base struct {
	Kind         AddonType   `json:"type"`
	Name         string      `json:"name"`
	TitleFormat  TitleFormat `json:"title_format"`
	Description  string      `json:"description"`
	Required     bool        `json:"required"`
	Position     int         `json:"position"`
	Restrictions bool        `json:"restrictions"`
	AdjustPrice  bool        `json:"adjust_price"`
	Price        string      `json:"price"`
	PriceType    PriceType   `json:"price_type"`
	Options      []Option    `json:"options"`
}

func (b Base) Type() AddonType { return b.Kind }
func (b Base) Common() Base    { return b }

// Addon es la unión de variantes; el tipo concreto se obtiene con un type switch.
type Addon interface {
	Type() AddonType
	Common() Base
}

type Checkbox struct {
	Base
}

type MultipleChoice struct {
	Base
	Display Display `json:"display"`
}

type CustomText struct {
	Base
	Restriction Restriction `json:"restriction"`
	MinLength   int         `json:"min_length"`
	MaxLength   int         `json:"max_length"`
}

type CustomTextArea struct {
	Base
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`
}

type FileUpload struct {
	Base
}

type CustomPrice struct {
	Base
	MinPrice decimal.Decimal `json:"min_price"`
	MaxPrice decimal.Decimal `json:"max_price"`
}

type InputMultiplier struct {
	Base
	Min int `json:"min"`
	Max int `json:"max"`
}

type Heading struct {
	Base
}

type DatePicker struct {
	Base
}

// AddonGroup es un grupo global; sin categorías restringidas aplica a todos los productos.
type AddonGroup struct {
	ID                    int64   `json:"id"`
	Name                  string  `json:"name"`
	Priority              int     `json:"priority"`
	RestrictedCategoryIDs []int64 `json:"restricted_category_ids"`
	Addons                []Addon `json:"addons"`
}

// AppliesTo indica si el grupo aplica a un producto con esas categorías.
func (g AddonGroup) AppliesTo(categoryIDs []int64) bool {
	if len(g.RestrictedCategoryIDs) == 0 {
		return true
	}
	for _, restricted := range g.RestrictedCategoryIDs {
		for _, id := range categoryIDs {
			if id == restricted {
				return true
			}
		}
	}
	return false
}

// ProductAddons son los add-ons guardados en la meta de un producto.
type ProductAddons struct {
	ProductID     int64   `json:"product_id"`
	ExcludeGlobal bool    `json:"exclude_global"`
	Addons        []Addon `json:"addons"`
}
