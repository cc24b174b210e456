// Package testutil tiene los helpers compartidos por los tests de los stores.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/persistence"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Server levanta un httptest.Server que se cierra al final del test.
func Server(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// Site devuelve un sitio APPLICATION_PASSWORD apuntando a baseURL.
func Site(baseURL string) site.Site {
	return site.Site{
		LocalID:  1,
		URL:      baseURL,
		Name:     "Test Store",
		Origin:   site.OriginApplicationPassword,
		Username: "admin",
		Password: "secret",
	}
}

// Client devuelve un request builder sin cache ni límites prácticos.
func Client() *network.Client {
	return network.NewClient(network.Options{
		Logger:             zap.NewNop(),
		RateLimitPerSecond: 1000,
		Burst:              1000,
	})
}

// Database abre SQLite en memoria con los modelos migrados.
func Database(t *testing.T, models ...any) *persistence.Database {
	t.Helper()
	db, err := persistence.OpenInMemory(models...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// JSON escribe body como respuesta 200 application/json.
func JSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// Error escribe el cuerpo de error estándar de la API REST de WordPress.
func Error(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"code":"` + code + `","message":"` + message + `","data":{"status":` + strconv.Itoa(status) + `}}`))
}
