// Package convert agrupa los helpers de los mappers DTO -> modelo.
// Ninguno devuelve error: un valor ausente o inválido se reemplaza por el default.
package convert

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Flex es un escalar JSON tolerante: acepta string, número, bool o null.
// WooCommerce devuelve ids y montos a veces como número y a veces como string.
type Flex struct {
	value string
	set   bool
}

// NewFlex construye un Flex presente (tests y payloads armados a mano).
func NewFlex(v string) *Flex {
	return &Flex{value: v, set: true}
}

func (f *Flex) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = Flex{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			*f = Flex{}
			return nil
		}
		*f = Flex{value: s, set: true}
		return nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		// objetos y arrays no son escalares: se tratan como ausentes
		*f = Flex{}
		return nil
	}
	*f = Flex{value: string(trimmed), set: true}
	return nil
}

func (f Flex) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// String devuelve el valor crudo ("" si está ausente).
func (f *Flex) String() string {
	if f == nil || !f.set {
		return ""
	}
	return f.value
}

func (f *Flex) IsSet() bool {
	return f != nil && f.set
}

// StringOrEmpty desreferencia un *string opcional.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func BoolOrFalse(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

// FlexBool entiende true/false, "yes"/"no", "1"/"0".
func FlexBool(f *Flex) bool {
	switch strings.ToLower(strings.TrimSpace(f.String())) {
	case "true", "yes", "1", "on":
		return true
	default:
		return false
	}
}

// Int64OrZero parsea un entero; vacío, inválido o fuera de rango -> 0.
func Int64OrZero(f *Flex) int64 {
	s := strings.TrimSpace(f.String())
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// "12.0" llega en algunos endpoints: se acepta si es entero exacto
		d, derr := decimal.NewFromString(s)
		if derr != nil || !d.Equal(d.Truncate(0)) {
			return 0
		}
		if d.GreaterThan(decimal.NewFromInt(maxInt64)) || d.LessThan(decimal.NewFromInt(minInt64)) {
			return 0
		}
		return d.IntPart()
	}
	return v
}

const (
	maxInt64 = int64(^uint64(0) >> 1)
	minInt64 = -maxInt64 - 1
	maxInt32 = int64(^uint32(0) >> 1)
	minInt32 = -maxInt32 - 1
)

// IntOrZero es Int64OrZero acotado a int32 (tipo de posiciones, cantidades, prioridades).
func IntOrZero(f *Flex) int {
	v := Int64OrZero(f)
	if v > maxInt32 || v < minInt32 {
		return 0
	}
	return int(v)
}

// Float64OrZero parsea un float; inválido, NaN o infinito -> 0.
func Float64OrZero(f *Flex) float64 {
	s := strings.TrimSpace(f.String())
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != v || v > 1.7e308 || v < -1.7e308 {
		return 0
	}
	return v
}

// DecimalOrZero parsea montos ("10.50", 10.5); inválido -> 0.
func DecimalOrZero(f *Flex) decimal.Decimal {
	return ParseAmount(f.String())
}

// ParseAmount es la inversa de AmountString; vacío o inválido -> 0.
// El cero se construye parseando "0" para que sea idéntico al leído de la base.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		d, _ = decimal.NewFromString("0")
	}
	return d
}

// AmountString serializa un monto conservando su escala: "10.00" sigue siendo "10.00".
func AmountString(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}
	return d.String()
}

// DecimalString devuelve un monto como string con dos decimales (formato que espera la API).
func DecimalString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

var wooDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DateOrEmpty normaliza las fechas GMT de WooCommerce ("2024-03-01T10:00:00") a RFC3339 UTC.
// Fechas inválidas -> "".
func DateOrEmpty(s *string) string {
	raw := strings.TrimSpace(StringOrEmpty(s))
	if raw == "" {
		return ""
	}
	for _, layout := range wooDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}

// JoinNonEmpty junta valores con sep descartando vacíos.
func JoinNonEmpty(values []string, sep string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}

// Int64String formatea un id numérico
func Int64String(v int64) string {
	return strconv.FormatInt(v, 10)
}
