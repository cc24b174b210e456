package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidDate(t *testing.T) {
	assert.True(t, IsValidDate("2024-02-29"))
	assert.False(t, IsValidDate("2023-02-29"))
	assert.False(t, IsValidDate("2024-2-1"))
	assert.False(t, IsValidDate(""))
}

func TestDateFilter(t *testing.T) {
	assert.True(t, IsValidDateFilter("2024-03-01"))
	assert.True(t, IsValidDateFilter("2024-03-01T10:00:00Z"))
	assert.False(t, IsValidDateFilter("03/01/2024"))

	assert.Equal(t, "2024-03-01T00:00:00", NormalizeDateFilter("2024-03-01"))
	assert.Equal(t, "2024-03-01T08:00:00", NormalizeDateFilter("2024-03-01T10:00:00+02:00"))
	assert.Equal(t, "", NormalizeDateFilter("nope"))
}

type sample struct {
	Slug  string `validate:"required,wooslug"`
	After string `validate:"datefilter"`
	Page  int    `validate:"gte=1"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Slug: "zero-rate", After: "2024-01-01", Page: 1}))
	require.NoError(t, Struct(sample{Slug: "standard", Page: 3}))

	err := Struct(sample{Slug: "Zero Rate", After: "yesterday", Page: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample.Slug failed on 'wooslug'")
	assert.Contains(t, err.Error(), "sample.After failed on 'datefilter'")
	assert.Contains(t, err.Error(), "sample.Page failed on 'gte=1'")
}

func TestValidateWebhookURL(t *testing.T) {
	v := NewRequestValidator()
	assert.NoError(t, v.ValidateWebhookURL("https://hooks.example.com/woo"))
	assert.Error(t, v.ValidateWebhookURL(""))
	assert.Error(t, v.ValidateWebhookURL("not a url"))
	assert.Error(t, v.ValidateWebhookURL("ftp://example.com"))
	assert.Error(t, v.ValidateWebhookURL("https://example.com/<script>"))
}
