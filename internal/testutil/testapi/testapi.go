// Package testapi wires an in-memory sqlite store, a token resolver and a gin
// engine for route tests.
package testapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/chirino/gina-service/internal/config"
	"github.com/chirino/gina-service/internal/model"
	_ "github.com/chirino/gina-service/internal/plugin/store/sqlite"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// Env is a ready-to-mount test environment.
type Env struct {
	Config   *config.Config
	Ctx      context.Context
	Store    registrystore.RecordStore
	Resolver *security.TokenResolver
	Router   *gin.Engine
}

// New opens a fresh in-memory store and an empty gin engine.
func New(t *testing.T) *Env {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DatastoreType = "sqlite"
	cfg.DBURL = "file::memory:"
	cfg.JWTSecret = "route-test-secret"
	ctx, cancel := context.WithCancel(config.WithContext(context.Background(), &cfg))
	t.Cleanup(cancel)

	loader, err := registrystore.Select("sqlite")
	require.NoError(t, err)
	store, err := loader(ctx)
	require.NoError(t, err)

	resolver, err := security.NewTokenResolver(ctx, &cfg, store)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	return &Env{Config: &cfg, Ctx: ctx, Store: store, Resolver: resolver, Router: gin.New()}
}

// Auth is the strict auth middleware for the environment.
func (e *Env) Auth() gin.HandlerFunc {
	return security.AuthMiddleware(e.Resolver)
}

// OptionalAuth is the optional auth middleware for the environment.
func (e *Env) OptionalAuth() gin.HandlerFunc {
	return security.OptionalAuthMiddleware(e.Resolver)
}

// User creates a user and returns it with a session token.
func (e *Env) User(t *testing.T, email string) (*model.User, string) {
	t.Helper()
	hash, err := security.HashPassword("password123")
	require.NoError(t, err)
	user, err := e.Store.CreateUser(e.Ctx, email, hash, nil)
	require.NoError(t, err)
	token, err := e.Resolver.Issue(user)
	require.NoError(t, err)
	return user, token
}

// Do sends a request with an optional JSON body and bearer token.
func (e *Env) Do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a JSON response body into a map.
func Decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
