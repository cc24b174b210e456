package addons

import (
	"encoding/json"
	"strconv"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
)

// toDTO es la inversa de ToModel; se usa para guardar add-ons como JSON.
func toDTO(addon Addon) AddonDTO {
	b := addon.Common()
	dto := AddonDTO{
		Name:         str(b.Name),
		TitleFormat:  str(string(b.TitleFormat)),
		Description:  str(b.Description),
		Type:         str(string(b.Kind)),
		Position:     convert.NewFlex(strconv.Itoa(b.Position)),
		Required:     flexBool(b.Required),
		Restrictions: flexBool(b.Restrictions),
		AdjustPrice:  flexBool(b.AdjustPrice),
		PriceType:    str(string(b.PriceType)),
		Price:        convert.NewFlex(b.Price),
	}
	for _, opt := range b.Options {
		dto.Options = append(dto.Options, OptionDTO{
			Label:     str(opt.Label),
			Price:     convert.NewFlex(opt.Price),
			PriceType: str(string(opt.PriceType)),
			Image:     convert.NewFlex(opt.ImageID),
		})
	}

	switch a := addon.(type) {
	case MultipleChoice:
		dto.Display = str(string(a.Display))
	case CustomText:
		dto.RestrictionsType = str(string(a.Restriction))
		dto.Min = convert.NewFlex(strconv.Itoa(a.MinLength))
		dto.Max = convert.NewFlex(strconv.Itoa(a.MaxLength))
	case CustomTextArea:
		dto.Min = convert.NewFlex(strconv.Itoa(a.MinLength))
		dto.Max = convert.NewFlex(strconv.Itoa(a.MaxLength))
	case CustomPrice:
		dto.Min = convert.NewFlex(convert.AmountString(a.MinPrice))
		dto.Max = convert.NewFlex(convert.AmountString(a.MaxPrice))
	case InputMultiplier:
		dto.Min = convert.NewFlex(strconv.Itoa(a.Min))
		dto.Max = convert.NewFlex(strconv.Itoa(a.Max))
	}
	return dto
}

func str(s string) *string {
	return &s
}

func flexBool(b bool) *convert.Flex {
	if b {
		return convert.NewFlex("1")
	}
	return convert.NewFlex("0")
}

// EncodeAddons serializa la lista en el formato de la extensión.
func EncodeAddons(addons []Addon) (string, error) {
	dtos := make([]AddonDTO, 0, len(addons))
	for _, a := range addons {
		dtos = append(dtos, toDTO(a))
	}
	out, err := json.Marshal(dtos)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecodeAddons es la inversa de EncodeAddons.
func DecodeAddons(raw string) ([]Addon, error) {
	if raw == "" {
		return []Addon{}, nil
	}
	var dtos []AddonDTO
	if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
		return nil, err
	}
	return MapAddons(dtos), nil
}
