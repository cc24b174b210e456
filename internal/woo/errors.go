package woo

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
)

// WooErrorType es la clasificación de dominio que ve el llamador del Store.
type WooErrorType string

const (
	ErrorGeneric               WooErrorType = "GENERIC_ERROR"
	ErrorAPI                   WooErrorType = "API_ERROR"
	ErrorInvalidResponse       WooErrorType = "INVALID_RESPONSE"
	ErrorTimeout               WooErrorType = "TIMEOUT"
	ErrorAuthorizationRequired WooErrorType = "AUTHORIZATION_REQUIRED"
	ErrorInvalidID             WooErrorType = "INVALID_ID"
	ErrorInvalidParam          WooErrorType = "INVALID_PARAM"
	ErrorPluginNotActive       WooErrorType = "PLUGIN_NOT_ACTIVE"
	ErrorAPINotFound           WooErrorType = "API_NOT_FOUND"
	ErrorResourceAlreadyExists WooErrorType = "RESOURCE_ALREADY_EXISTS"
)

// WooError lleva el tipo de dominio, el tipo de red original y un mensaje opcional.
type WooError struct {
	Type     WooErrorType             `json:"type"`
	Original network.GenericErrorType `json:"original"`
	Message  string                   `json:"message,omitempty"`
	APICode  string                   `json:"api_code,omitempty"`
}

func (e *WooError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%s)", e.Type, e.Original)
	}
	return fmt.Sprintf("%s (%s): %s", e.Type, e.Original, e.Message)
}

// ToWooError mapea el error del request builder al error de dominio.
func ToWooError(err *network.Error) *WooError {
	if err == nil {
		return nil
	}
	wooErr := &WooError{
		Type:     typeFor(err),
		Original: err.Type,
		Message:  err.Message,
		APICode:  err.APICode,
	}
	if wooErr.Message == "" && err.Cause != nil {
		wooErr.Message = err.Cause.Error()
	}
	return wooErr
}

func typeFor(err *network.Error) WooErrorType {
	code := strings.ToLower(err.APICode)
	switch {
	case code == "rest_no_route":
		return ErrorPluginNotActive
	case strings.HasSuffix(code, "invalid_id"), strings.Contains(code, "invalid_id_"):
		return ErrorInvalidID
	case strings.Contains(code, "_cannot_"), code == "rest_forbidden",
		strings.HasSuffix(code, "authentication_error"), code == "rest_not_logged_in":
		return ErrorAuthorizationRequired
	case code == "rest_invalid_param", code == "rest_missing_callback_param":
		return ErrorInvalidParam
	case strings.HasSuffix(code, "_exists"), strings.HasSuffix(code, "-exists"):
		return ErrorResourceAlreadyExists
	}

	switch err.Type {
	case network.ErrTypeTimeout:
		return ErrorTimeout
	case network.ErrTypeInvalidResponse, network.ErrTypeParseError:
		return ErrorInvalidResponse
	case network.ErrTypeNotAuthenticated, network.ErrTypeHTTPAuthError:
		return ErrorAuthorizationRequired
	case network.ErrTypeNotFound:
		if code == "" {
			return ErrorAPINotFound
		}
	}
	if err.StatusCode == http.StatusUnauthorized || err.StatusCode == http.StatusForbidden {
		return ErrorAuthorizationRequired
	}
	if code != "" {
		return ErrorAPI
	}
	return ErrorGeneric
}

// PersistenceError convierte un fallo local (DAO) en el error genérico.
func PersistenceError(err error) *WooError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &WooError{Type: ErrorGeneric, Original: network.ErrTypeUnknown, Message: msg}
}

// InvalidParam se usa cuando la validación local rechaza la operación antes de ir a la red.
func InvalidParam(message string) *WooError {
	return &WooError{Type: ErrorInvalidParam, Original: network.ErrTypeUnknown, Message: message}
}
