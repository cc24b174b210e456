package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
)

// AppError es el error que devuelve la API HTTP del servicio
type AppError struct {
	Code       int            `json:"code"`
	Message    string         `json:"message"`
	Details    string         `json:"details,omitempty"`
	Type       string         `json:"type,omitempty"`
	Internal   error          `json:"-"` // No se expone al cliente
	Metadata   map[string]any `json:"metadata,omitempty"`
	Retryable  bool           `json:"retryable"`
	StatusCode int            `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

func NewAppError(statusCode int, code int, message string, internal error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Internal:   internal,
		StatusCode: statusCode,
		Metadata:   make(map[string]any),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithMetadata(key string, value any) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

func (e *AppError) WithRetryable(retryable bool) *AppError {
	e.Retryable = retryable
	return e
}

func (e *AppError) withType(t string) *AppError {
	e.Type = t
	return e
}

var (
	// 4xx
	ErrBadRequest = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadRequest, 40000, "Invalid request", err).
			WithDetails(details)
	}

	ErrUnauthorized = func(details string, err error) *AppError {
		return NewAppError(http.StatusUnauthorized, 40100, "Authentication failed", err).
			WithDetails(details)
	}

	ErrNotFound = func(details string, err error) *AppError {
		return NewAppError(http.StatusNotFound, 40400, "Resource not found", err).
			WithDetails(details)
	}

	ErrConflict = func(details string, err error) *AppError {
		return NewAppError(http.StatusConflict, 40900, "Resource already exists", err).
			WithDetails(details)
	}

	ErrValidation = func(details string, err error) *AppError {
		return NewAppError(http.StatusUnprocessableEntity, 42200, "Validation error", err).
			WithDetails(details)
	}

	ErrPluginNotActive = func(details string, err error) *AppError {
		return NewAppError(http.StatusFailedDependency, 42400, "Required plugin not active", err).
			WithDetails(details)
	}

	ErrRateLimited = func(details string, err error) *AppError {
		return NewAppError(http.StatusTooManyRequests, 42900, "Rate limit exceeded", err).
			WithDetails(details).
			WithRetryable(true)
	}

	// 5xx
	ErrInternalServer = func(details string, err error) *AppError {
		return NewAppError(http.StatusInternalServerError, 50000, "Internal server error", err).
			WithDetails(details)
	}

	ErrExternalAPI = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadGateway, 50200, "Store API error", err).
			WithDetails(details)
	}

	ErrServiceUnavailable = func(details string, err error) *AppError {
		return NewAppError(http.StatusServiceUnavailable, 50300, "Service temporarily unavailable", err).
			WithDetails(details).
			WithRetryable(true)
	}

	ErrGatewayTimeout = func(details string, err error) *AppError {
		return NewAppError(http.StatusGatewayTimeout, 50400, "Request timeout", err).
			WithDetails(details).
			WithRetryable(true)
	}
)

// FromWooError traduce el error de dominio de un Store al error HTTP.
// El tipo original de red decide los casos que el tipo de dominio no distingue.
func FromWooError(err *woo.WooError) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	switch err.Type {
	case woo.ErrorInvalidParam:
		appErr = ErrValidation(err.Message, err)
	case woo.ErrorAuthorizationRequired:
		appErr = ErrUnauthorized(err.Message, err)
	case woo.ErrorInvalidID, woo.ErrorAPINotFound:
		appErr = ErrNotFound(err.Message, err)
	case woo.ErrorResourceAlreadyExists:
		appErr = ErrConflict(err.Message, err)
	case woo.ErrorPluginNotActive:
		appErr = ErrPluginNotActive(err.Message, err)
	case woo.ErrorTimeout:
		appErr = ErrGatewayTimeout(err.Message, err)
	default:
		switch err.Original {
		case network.ErrTypeRateLimited:
			appErr = ErrRateLimited(err.Message, err)
		case network.ErrTypeCircuitOpen, network.ErrTypeNoConnection:
			appErr = ErrServiceUnavailable(err.Message, err)
		case network.ErrTypeServerError:
			appErr = ErrExternalAPI(err.Message, err).WithRetryable(true)
		case network.ErrTypeUnknown:
			if err.Type == woo.ErrorGeneric {
				appErr = ErrInternalServer(err.Message, err)
				break
			}
			appErr = ErrExternalAPI(err.Message, err)
		default:
			appErr = ErrExternalAPI(err.Message, err)
		}
	}

	if err.APICode != "" {
		appErr.WithMetadata("api_code", err.APICode)
	}
	return appErr.withType(string(err.Type))
}

func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
