package auth_test

import (
	"net/http"
	"testing"

	"github.com/chirino/gina-service/internal/plugin/route/auth"
	"github.com/chirino/gina-service/internal/testutil/testapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *testapi.Env {
	env := testapi.New(t)
	auth.MountRoutes(env.Router, env.Store, env.Resolver, env.Auth())
	return env
}

func TestRegisterAndLogin(t *testing.T) {
	env := setup(t)

	w := env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "Sam@Example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := testapi.Decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "sam@example.com", body["user"].(map[string]any)["email"])

	w = env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "sam@example.com", "password": "secret2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.Do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "SAM@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	token := testapi.Decode(t, w)["token"].(string)

	w = env.Do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sam@example.com", testapi.Decode(t, w)["user"].(map[string]any)["email"])
}

func TestRegisterValidation(t *testing.T) {
	env := setup(t)

	w := env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and password are required", testapi.Decode(t, w)["error"])

	w = env.Do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "a@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := setup(t)
	env.User(t, "kim@example.com")

	w := env.Do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "kim@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", testapi.Decode(t, w)["error"])

	w = env.Do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setup(t)
	assert.Equal(t, http.StatusUnauthorized, env.Do(t, http.MethodGet, "/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.Do(t, http.MethodGet, "/auth/me", "garbage", nil).Code)
}

func TestUpdateUsername(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "lee@example.com")

	w := env.Do(t, http.MethodPut, "/auth/username", token, map[string]any{"username": "L"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username must be at least 2 characters", testapi.Decode(t, w)["error"])

	w = env.Do(t, http.MethodPut, "/auth/username", token, map[string]any{"username": "  Lee  "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lee", testapi.Decode(t, w)["user"].(map[string]any)["username"])
}

func TestUpdatePassword(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "pat@example.com")

	w := env.Do(t, http.MethodPut, "/auth/password", token, map[string]any{"currentPassword": "password123", "newPassword": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Do(t, http.MethodPut, "/auth/password", token, map[string]any{"currentPassword": "nope", "newPassword": "newsecret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Current password is incorrect", testapi.Decode(t, w)["error"])

	w = env.Do(t, http.MethodPut, "/auth/password", token, map[string]any{"currentPassword": "password123", "newPassword": "newsecret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, testapi.Decode(t, w)["success"])

	w = env.Do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "pat@example.com", "password": "newsecret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	env := setup(t)
	_, token := env.User(t, "gone@example.com")

	require.Equal(t, http.StatusOK, env.Do(t, http.MethodDelete, "/auth/account", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodGet, "/auth/me", token, nil).Code)
}
