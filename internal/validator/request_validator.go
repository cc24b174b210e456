package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// RequestValidator valida payloads entrantes y parámetros de los stores
type RequestValidator struct {
	validate  *playground.Validate
	slugRegex *regexp.Regexp
}

// NewRequestValidator crea el validador con las reglas propias registradas
func NewRequestValidator() *RequestValidator {
	v := &RequestValidator{
		validate: playground.New(playground.WithRequiredStructEnabled()),
		// slugs de WooCommerce: "standard", "zero-rate", "reduced_rate"
		slugRegex: regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`),
	}
	_ = v.validate.RegisterValidation("wooslug", func(fl playground.FieldLevel) bool {
		return v.slugRegex.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("datefilter", func(fl playground.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || IsValidDateFilter(value)
	})
	return v
}

var defaultValidator = NewRequestValidator()

// Struct valida con el validador por defecto
func Struct(s any) error {
	return defaultValidator.Struct(s)
}

// Struct valida las etiquetas `validate` y devuelve un error legible
func (v *RequestValidator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs playground.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s=%s'", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ValidateWebhookURL valida la URL del webhook de eventos
func (v *RequestValidator) ValidateWebhookURL(raw string) error {
	if raw == "" {
		return errors.New("webhook url is required")
	}
	if err := v.validate.Var(raw, "url,startswith=http"); err != nil {
		return errors.New("webhook url must be an absolute http(s) url")
	}
	// Prevent dangerous characters that could be used for injection attacks
	dangerousChars := []string{"<", ">", "\"", "'", "`", "\\", "\n", "\r", "\t"}
	for _, char := range dangerousChars {
		if strings.Contains(raw, char) {
			return errors.New("webhook url contains invalid characters")
		}
	}
	return nil
}
