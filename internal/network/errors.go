package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// GenericErrorType clasifica el fallo a nivel HTTP / conectividad.
type GenericErrorType string

const (
	ErrTypeTimeout               GenericErrorType = "TIMEOUT"
	ErrTypeNoConnection          GenericErrorType = "NO_CONNECTION"
	ErrTypeNetworkError          GenericErrorType = "NETWORK_ERROR"
	ErrTypeNotFound              GenericErrorType = "NOT_FOUND"
	ErrTypeNotAuthenticated      GenericErrorType = "NOT_AUTHENTICATED"
	ErrTypeHTTPAuthError         GenericErrorType = "HTTP_AUTH_ERROR"
	ErrTypeCensored              GenericErrorType = "CENSORED"
	ErrTypeInvalidSSLCertificate GenericErrorType = "INVALID_SSL_CERTIFICATE"
	ErrTypeServerError           GenericErrorType = "SERVER_ERROR"
	ErrTypeInvalidResponse       GenericErrorType = "INVALID_RESPONSE"
	ErrTypeParseError            GenericErrorType = "PARSE_ERROR"
	ErrTypeRateLimited           GenericErrorType = "RATE_LIMITED"
	ErrTypeCircuitOpen           GenericErrorType = "CIRCUIT_OPEN"
	ErrTypeUnknown               GenericErrorType = "UNKNOWN"
)

// Error es la rama Error de la respuesta del request builder.
type Error struct {
	Type       GenericErrorType `json:"type"`
	StatusCode int              `json:"status_code,omitempty"`
	APICode    string           `json:"api_code,omitempty"` // "code" del cuerpo de error de WP/WooCommerce
	Message    string           `json:"message,omitempty"`
	Cause      error            `json:"-"`
}

func (e *Error) Error() string {
	msg := string(e.Type)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.APICode != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.APICode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// typeForStatus traduce un status HTTP no exitoso.
func typeForStatus(status int) GenericErrorType {
	switch {
	case status == http.StatusUnauthorized:
		return ErrTypeNotAuthenticated
	case status == http.StatusForbidden:
		return ErrTypeHTTPAuthError
	case status == http.StatusNotFound:
		return ErrTypeNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTypeTimeout
	case status == http.StatusTooManyRequests:
		return ErrTypeRateLimited
	case status == http.StatusUnavailableForLegalReasons:
		return ErrTypeCensored
	case status >= 500:
		return ErrTypeServerError
	case status >= 400:
		return ErrTypeNetworkError
	default:
		return ErrTypeUnknown
	}
}

// fromTransportError clasifica errores de http.Client.Do o del contexto.
func fromTransportError(err error) *Error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var certErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Type: ErrTypeTimeout, Cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Type: ErrTypeNetworkError, Message: "request cancelled", Cause: err}
	case errors.As(err, &certErr), errors.As(err, &unknownAuthority), errors.As(err, &hostnameErr):
		return &Error{Type: ErrTypeInvalidSSLCertificate, Cause: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Type: ErrTypeTimeout, Cause: err}
	case errors.As(err, &dnsErr):
		return &Error{Type: ErrTypeNoConnection, Cause: err}
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return &Error{Type: ErrTypeNoConnection, Cause: err}
	default:
		return &Error{Type: ErrTypeNetworkError, Cause: err}
	}
}
