package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgu-records/recordkeeper/config"
	"github.com/lgu-records/recordkeeper/internal/app"
	"github.com/lgu-records/recordkeeper/internal/events"
	"github.com/lgu-records/recordkeeper/internal/logging"
)

func bareApp(secret string) *app.App {
	cfg := config.Defaults()
	cfg.JWTSecret = secret
	logger := logging.Discard()
	return &app.App{Config: cfg, Logger: logger, Hub: events.NewHub(logger)}
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(bareApp("  "))
	assert.EqualError(t, err, "JWT_SECRET is required")

	srv, err := New(bareApp("secret"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", srv.httpServer.Addr)
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	router := NewRouter(bareApp("secret"), "secret")

	for path, want := range map[string]int{
		"/healthz":       http.StatusOK,
		"/records":       http.StatusUnauthorized,
		"/stats":         http.StatusUnauthorized,
		"/export/csv":    http.StatusUnauthorized,
		"/backups":       http.StatusUnauthorized,
		"/events":        http.StatusUnauthorized,
		"/auth/me":       http.StatusUnauthorized,
		"/no-such-route": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
