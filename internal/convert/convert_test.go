package convert

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFlex_Unmarshal(t *testing.T) {
	var dto struct {
		A *Flex `json:"a"`
		B *Flex `json:"b"`
		C *Flex `json:"c"`
		D *Flex `json:"d"`
		E *Flex `json:"e"`
		F *Flex `json:"f"`
	}
	err := json.Unmarshal([]byte(`{"a":"12","b":12.5,"c":null,"d":true,"e":{"x":1}}`), &dto)
	require.NoError(t, err)

	assert.Equal(t, "12", dto.A.String())
	assert.Equal(t, "12.5", dto.B.String())
	assert.False(t, dto.C.IsSet())
	assert.Equal(t, "true", dto.D.String())
	assert.False(t, dto.E.IsSet())
	assert.Nil(t, dto.F)
	assert.Equal(t, "", dto.F.String())
}

func TestFlex_Marshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Flex  `json:"a"`
		B *Flex `json:"b"`
	}{A: Flex{}, B: NewFlex("7")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":"7"}`, string(out))
}

func TestInt64OrZero(t *testing.T) {
	tests := []struct {
		in   *Flex
		want int64
	}{
		{nil, 0},
		{NewFlex(""), 0},
		{NewFlex("42"), 42},
		{NewFlex("-3"), -3},
		{NewFlex("12.0"), 12},
		{NewFlex("12.5"), 0},
		{NewFlex("abc"), 0},
		{NewFlex("9223372036854775807"), 9223372036854775807},
		{NewFlex("9223372036854775808"), 0},
		{NewFlex("99999999999999999999999"), 0},
		{NewFlex("1e30"), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Int64OrZero(tt.in), "input %q", tt.in.String())
	}
}

func TestIntOrZero_OutOfRange(t *testing.T) {
	assert.Equal(t, 5, IntOrZero(NewFlex("5")))
	assert.Equal(t, 0, IntOrZero(NewFlex("2147483648")))
	assert.Equal(t, -2147483648, IntOrZero(NewFlex("-2147483648")))
}

func TestFloat64OrZero(t *testing.T) {
	assert.Equal(t, 10.5, Float64OrZero(NewFlex("10.5")))
	assert.Equal(t, 0.0, Float64OrZero(NewFlex("1e999")))
	assert.Equal(t, 0.0, Float64OrZero(NewFlex("NaN")))
	assert.Equal(t, 0.0, Float64OrZero(nil))
}

func TestDecimalOrZero(t *testing.T) {
	assert.True(t, decimal.RequireFromString("10.50").Equal(DecimalOrZero(NewFlex("10.50"))))
	assert.True(t, DecimalOrZero(NewFlex("ten")).IsZero())
	assert.True(t, DecimalOrZero(nil).IsZero())
	assert.Equal(t, "10.50", DecimalString(decimal.RequireFromString("10.5")))
}

func TestAmountString_RoundTrip(t *testing.T) {
	for _, raw := range []string{"10.00", "6.00", "-25.00", "0.00", "0.5", "12", "0"} {
		d := ParseAmount(raw)
		assert.Equal(t, raw, AmountString(d), raw)
		assert.Equal(t, d, ParseAmount(AmountString(d)), raw)
	}
	assert.Equal(t, ParseAmount("0"), DecimalOrZero(nil))
	assert.Equal(t, ParseAmount("0"), DecimalOrZero(NewFlex("ten")))
	assert.Equal(t, "0", AmountString(decimal.Decimal{}))
}

func TestFlexBool(t *testing.T) {
	assert.True(t, FlexBool(NewFlex("yes")))
	assert.True(t, FlexBool(NewFlex("true")))
	assert.True(t, FlexBool(NewFlex("1")))
	assert.False(t, FlexBool(NewFlex("no")))
	assert.False(t, FlexBool(nil))
}

func TestDateOrEmpty(t *testing.T) {
	assert.Equal(t, "2024-03-01T10:00:00Z", DateOrEmpty(strPtr("2024-03-01T10:00:00")))
	assert.Equal(t, "2024-03-01T08:00:00Z", DateOrEmpty(strPtr("2024-03-01T10:00:00+02:00")))
	assert.Equal(t, "2024-03-01T00:00:00Z", DateOrEmpty(strPtr("2024-03-01")))
	assert.Equal(t, "", DateOrEmpty(strPtr("yesterday")))
	assert.Equal(t, "", DateOrEmpty(nil))
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, "", StringOrEmpty(nil))
	assert.Equal(t, "x", StringOrEmpty(strPtr("x")))
	yes := true
	assert.True(t, BoolOrFalse(&yes))
	assert.False(t, BoolOrFalse(nil))
	assert.Equal(t, "a;b", JoinNonEmpty([]string{"a", " ", "b"}, ";"))
}
