package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWooError(t *testing.T) {
	tests := []struct {
		name      string
		in        *woo.WooError
		status    int
		retryable bool
	}{
		{"invalid param", woo.InvalidParam("bad"), http.StatusUnprocessableEntity, false},
		{"auth", &woo.WooError{Type: woo.ErrorAuthorizationRequired, Original: network.ErrTypeNotAuthenticated}, http.StatusUnauthorized, false},
		{"invalid id", &woo.WooError{Type: woo.ErrorInvalidID, Original: network.ErrTypeNotFound}, http.StatusNotFound, false},
		{"api not found", &woo.WooError{Type: woo.ErrorAPINotFound, Original: network.ErrTypeNotFound}, http.StatusNotFound, false},
		{"exists", &woo.WooError{Type: woo.ErrorResourceAlreadyExists, Original: network.ErrTypeNetworkError}, http.StatusConflict, false},
		{"plugin", &woo.WooError{Type: woo.ErrorPluginNotActive, Original: network.ErrTypeNotFound}, http.StatusFailedDependency, false},
		{"timeout", &woo.WooError{Type: woo.ErrorTimeout, Original: network.ErrTypeTimeout}, http.StatusGatewayTimeout, true},
		{"rate limited", &woo.WooError{Type: woo.ErrorGeneric, Original: network.ErrTypeRateLimited}, http.StatusTooManyRequests, true},
		{"circuit open", &woo.WooError{Type: woo.ErrorGeneric, Original: network.ErrTypeCircuitOpen}, http.StatusServiceUnavailable, true},
		{"server error", &woo.WooError{Type: woo.ErrorAPI, Original: network.ErrTypeServerError}, http.StatusBadGateway, true},
		{"api error", &woo.WooError{Type: woo.ErrorAPI, Original: network.ErrTypeNetworkError}, http.StatusBadGateway, false},
		{"persistence", woo.PersistenceError(fmt.Errorf("disk full")), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromWooError(tt.in)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.retryable, appErr.Retryable)
			assert.Equal(t, string(tt.in.Type), appErr.Type)
			assert.ErrorIs(t, appErr, tt.in)
		})
	}
}

func TestFromWooError_Nil(t *testing.T) {
	assert.Nil(t, FromWooError(nil))
}

func TestFromWooError_KeepsAPICode(t *testing.T) {
	appErr := FromWooError(&woo.WooError{
		Type:     woo.ErrorResourceAlreadyExists,
		Original: network.ErrTypeNetworkError,
		APICode:  "registration-error-email-exists",
		Message:  "An account is already registered",
	})

	assert.Equal(t, "registration-error-email-exists", appErr.Metadata["api_code"])
	assert.Equal(t, "An account is already registered", appErr.Details)
}

func TestStatusAndRetryable_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrRateLimited("slow down", nil))

	assert.Equal(t, http.StatusTooManyRequests, GetStatusCode(wrapped))
	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}
