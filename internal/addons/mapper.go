package addons

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
)

// AddonDTO es un add-on tal como aparece en _product_addons o en "fields" de un grupo global.
// La extensión manda booleanos como 0/1 o "1", y números como string.
type AddonDTO struct {
	Name              *string       `json:"name,omitempty"`
	TitleFormat       *string       `json:"title_format,omitempty"`
	DescriptionEnable *convert.Flex `json:"description_enable,omitempty"`
	Description       *string       `json:"description,omitempty"`
	Type              *string       `json:"type,omitempty"`
	Display           *string       `json:"display,omitempty"`
	Position          *convert.Flex `json:"position,omitempty"`
	Required          *convert.Flex `json:"required,omitempty"`
	Restrictions      *convert.Flex `json:"restrictions,omitempty"`
	RestrictionsType  *string       `json:"restrictions_type,omitempty"`
	AdjustPrice       *convert.Flex `json:"adjust_price,omitempty"`
	PriceType         *string       `json:"price_type,omitempty"`
	Price             *convert.Flex `json:"price,omitempty"`
	Min               *convert.Flex `json:"min,omitempty"`
	Max               *convert.Flex `json:"max,omitempty"`
	Options           []OptionDTO   `json:"options,omitempty"`
}

type OptionDTO struct {
	Label     *string       `json:"label,omitempty"`
	Price     *convert.Flex `json:"price,omitempty"`
	PriceType *string       `json:"price_type,omitempty"`
	Image     *convert.Flex `json:"image,omitempty"`
}

// AddonGroupDTO es un elemento de GET /wc-product-add-ons/v1/product-add-ons
type AddonGroupDTO struct {
	ID                   *convert.Flex   `json:"id"`
	Name                 *string         `json:"name"`
	Priority             *convert.Flex   `json:"priority"`
	RestrictToCategories json.RawMessage `json:"restrict_to_categories"`
	Fields               []AddonDTO      `json:"fields"`
}

// MetaDataDTO es una entrada de meta_data del producto
type MetaDataDTO struct {
	ID    *convert.Flex   `json:"id"`
	Key   *string         `json:"key"`
	Value json.RawMessage `json:"value"`
}

type ProductMetaDTO struct {
	ID       *convert.Flex `json:"id"`
	MetaData []MetaDataDTO `json:"meta_data"`
}

const (
	metaProductAddons = "_product_addons"
	metaExcludeGlobal = "_product_addons_exclude_global"
)

func priceTypeOf(s *string) PriceType {
	switch PriceType(convert.StringOrEmpty(s)) {
	case PriceQuantityBased:
		return PriceQuantityBased
	case PricePercentageBased:
		return PricePercentageBased
	default:
		return PriceFlatFee
	}
}

func titleFormatOf(s *string) TitleFormat {
	switch TitleFormat(convert.StringOrEmpty(s)) {
	case TitleHeading:
		return TitleHeading
	case TitleHide:
		return TitleHide
	default:
		return TitleLabel
	}
}

func displayOf(s *string) Display {
	switch Display(convert.StringOrEmpty(s)) {
	case DisplayRadioButton:
		return DisplayRadioButton
	case DisplayImages:
		return DisplayImages
	default:
		return DisplayDropdown
	}
}

func restrictionOf(s *string) Restriction {
	switch r := Restriction(convert.StringOrEmpty(s)); r {
	case RestrictionOnlyLetters, RestrictionOnlyNumbers, RestrictionOnlyLettersNumbers, RestrictionEmail:
		return r
	default:
		return RestrictionAnyText
	}
}

func (dto AddonDTO) base(kind AddonType) Base {
	b := Base{
		Kind:         kind,
		Name:         convert.StringOrEmpty(dto.Name),
		TitleFormat:  titleFormatOf(dto.TitleFormat),
		Description:  convert.StringOrEmpty(dto.Description),
		Required:     convert.FlexBool(dto.Required),
		Position:     convert.IntOrZero(dto.Position),
		Restrictions: convert.FlexBool(dto.Restrictions),
		AdjustPrice:  convert.FlexBool(dto.AdjustPrice),
		Price:        dto.Price.String(),
		PriceType:    priceTypeOf(dto.PriceType),
		Options:      make([]Option, 0, len(dto.Options)),
	}
	// description_enable ausente = descripción visible
	if dto.DescriptionEnable.IsSet() && !convert.FlexBool(dto.DescriptionEnable) {
		b.Description = ""
	}
	for _, opt := range dto.Options {
		b.Options = append(b.Options, Option{
			Label:     convert.StringOrEmpty(opt.Label),
			Price:     opt.Price.String(),
			PriceType: priceTypeOf(opt.PriceType),
			ImageID:   opt.Image.String(),
		})
	}
	return b
}

// ToModel devuelve false para tipos desconocidos.
func (dto AddonDTO) ToModel() (Addon, bool) {
	kind := AddonType(convert.StringOrEmpty(dto.Type))
	switch kind {
	case TypeCheckbox:
		return Checkbox{Base: dto.base(kind)}, true
	case TypeMultipleChoice:
		return MultipleChoice{Base: dto.base(kind), Display: displayOf(dto.Display)}, true
	case TypeCustomText:
		return CustomText{
			Base:        dto.base(kind),
			Restriction: restrictionOf(dto.RestrictionsType),
			MinLength:   convert.IntOrZero(dto.Min),
			MaxLength:   convert.IntOrZero(dto.Max),
		}, true
	case TypeCustomTextArea:
		return CustomTextArea{
			Base:      dto.base(kind),
			MinLength: convert.IntOrZero(dto.Min),
			MaxLength: convert.IntOrZero(dto.Max),
		}, true
	case TypeFileUpload:
		return FileUpload{Base: dto.base(kind)}, true
	case TypeCustomPrice:
		return CustomPrice{
			Base:     dto.base(kind),
			MinPrice: convert.DecimalOrZero(dto.Min),
			MaxPrice: convert.DecimalOrZero(dto.Max),
		}, true
	case TypeInputMultiplier:
		return InputMultiplier{
			Base: dto.base(kind),
			Min:  convert.IntOrZero(dto.Min),
			Max:  convert.IntOrZero(dto.Max),
		}, true
	case TypeHeading:
		return Heading{Base: dto.base(kind)}, true
	case TypeDatePicker:
		return DatePicker{Base: dto.base(kind)}, true
	default:
		return nil, false
	}
}

// MapAddons mapea la lista descartando tipos desconocidos y ordena por posición.
func MapAddons(dtos []AddonDTO) []Addon {
	out := make([]Addon, 0, len(dtos))
	for _, dto := range dtos {
		if addon, ok := dto.ToModel(); ok {
			out = append(out, addon)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Common().Position < out[j].Common().Position
	})
	return out
}

func (dto AddonGroupDTO) ToModel() AddonGroup {
	return AddonGroup{
		ID:                    convert.Int64OrZero(dto.ID),
		Name:                  convert.StringOrEmpty(dto.Name),
		Priority:              convert.IntOrZero(dto.Priority),
		RestrictedCategoryIDs: categoryIDs(dto.RestrictToCategories),
		Addons:                MapAddons(dto.Fields),
	}
}

// categoryIDs acepta {"15":"Clothing"} (ids como claves) o [15, "16"]; [] o null = sin restricción.
func categoryIDs(raw json.RawMessage) []int64 {
	raw = bytes.TrimSpace(raw)
	ids := []int64{}
	if len(raw) == 0 {
		return ids
	}
	switch raw[0] {
	case '{':
		var byID map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byID); err != nil {
			return ids
		}
		for key := range byID {
			if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
	case '[':
		var list []convert.Flex
		if err := json.Unmarshal(raw, &list); err != nil {
			return ids
		}
		for i := range list {
			if id := convert.Int64OrZero(&list[i]); id > 0 {
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ToModel extrae los add-ons de la meta del producto. Una meta ilegible se trata como vacía.
func (dto ProductMetaDTO) ToModel() ProductAddons {
	product := ProductAddons{
		ProductID: convert.Int64OrZero(dto.ID),
		Addons:    []Addon{},
	}
	for _, meta := range dto.MetaData {
		switch convert.StringOrEmpty(meta.Key) {
		case metaProductAddons:
			var dtos []AddonDTO
			if err := json.Unmarshal(meta.Value, &dtos); err == nil {
				product.Addons = MapAddons(dtos)
			}
		case metaExcludeGlobal:
			var flag convert.Flex
			if err := json.Unmarshal(meta.Value, &flag); err == nil {
				product.ExcludeGlobal = convert.FlexBool(&flag)
			}
		}
	}
	return product
}
