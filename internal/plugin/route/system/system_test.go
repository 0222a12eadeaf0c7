package system

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	registryroute "github.com/chirino/gina-service/internal/registry/route"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, registryroute.Mount(r, registryroute.RouteTypeManagement))
	require.NoError(t, registryroute.Mount(r, registryroute.RouteTypeMain))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSystemRoutes(t *testing.T) {
	t.Cleanup(func() {
		ready.Store(false)
		SetReadinessCheck(nil)
	})
	r := newRouter(t)

	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
	assert.Contains(t, get(r, "/").Body.String(), "GinaAI Backend Server is running!")

	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/ready").Code)
	MarkReady()
	assert.Equal(t, http.StatusOK, get(r, "/ready").Code)

	SetReadinessCheck(func(context.Context) error { return errors.New("db down") })
	w := get(r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")

	SetReadinessCheck(nil)
	assert.Equal(t, http.StatusOK, get(r, "/ready").Code)
}
