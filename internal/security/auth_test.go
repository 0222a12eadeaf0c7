package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chirino/gina-service/internal/config"
	"github.com/chirino/gina-service/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, secret string) *TokenResolver {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.JWTSecret = secret
	r, err := NewTokenResolver(context.Background(), &cfg, nil)
	require.NoError(t, err)
	return r
}

func TestNewTokenResolver_RequiresKey(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := NewTokenResolver(context.Background(), &cfg, nil)
	require.Error(t, err)
}

func TestIssueAndResolve(t *testing.T) {
	r := newTestResolver(t, "test-secret")
	user := &model.User{ID: uuid.New(), Email: "sam@example.com"}

	token, err := r.Issue(user)
	require.NoError(t, err)

	id, err := r.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), id.UserID)
	assert.Equal(t, "sam@example.com", id.Email)
}

func TestResolve_RejectsForeignSignature(t *testing.T) {
	issuer := newTestResolver(t, "secret-a")
	other := newTestResolver(t, "secret-b")
	token, err := issuer.Issue(&model.User{ID: uuid.New(), Email: "a@example.com"})
	require.NoError(t, err)

	_, err = other.Resolve(context.Background(), token)
	require.Error(t, err)
}

func TestResolve_RejectsExpired(t *testing.T) {
	r := newTestResolver(t, "test-secret")
	r.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	token, err := r.Issue(&model.User{ID: uuid.New(), Email: "a@example.com"})
	require.NoError(t, err)

	r.now = time.Now
	_, err = r.Resolve(context.Background(), token)
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
	assert.False(t, CheckPassword("", "hunter22"))
}

func authTestRouter(r *TokenResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/optional", OptionalAuthMiddleware(r), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": GetUserID(c)})
	})
	router.GET("/required", AuthMiddleware(r), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": GetUserID(c)})
	})
	return router
}

func TestOptionalAuthMiddleware_DegradesToAnonymous(t *testing.T) {
	r := newTestResolver(t, "test-secret")
	router := authTestRouter(r)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":""}`, w.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestResolver(t, "test-secret")
	router := authTestRouter(r)
	userID := uuid.New()
	token, err := r.Issue(&model.User{ID: userID, Email: "a@example.com"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/required", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/required", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"`+userID.String()+`"}`, w.Body.String())
}

func TestParseMetricsLabels(t *testing.T) {
	t.Setenv("GINA_TEST_ZONE", "eu-1")
	labels, err := ParseMetricsLabels("service=gina,zone=${GINA_TEST_ZONE}")
	require.NoError(t, err)
	assert.Equal(t, "gina", labels["service"])
	assert.Equal(t, "eu-1", labels["zone"])

	_, err = ParseMetricsLabels("bad")
	require.Error(t, err)

	labels, err = ParseMetricsLabels("")
	require.NoError(t, err)
	assert.Nil(t, labels)
}
