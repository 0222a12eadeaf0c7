package memories_test

import (
	"net/http"
	"testing"

	"github.com/chirino/gina-service/internal/plugin/route/memories"
	"github.com/chirino/gina-service/internal/testutil/testapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAndReplaceFacts(t *testing.T) {
	env := testapi.New(t)
	memories.MountRoutes(env.Router, env.Store, env.Auth())
	_, token := env.User(t, "facts@example.com")

	w := env.Do(t, http.MethodGet, "/memories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{}, testapi.Decode(t, w)["facts"])

	w = env.Do(t, http.MethodPost, "/memories", token, map[string]any{"facts": map[string]any{"hobbies": "running"}})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.Do(t, http.MethodPost, "/memories", token, map[string]any{"facts": map[string]any{"support": "sister", "hobbies": "climbing"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"hobbies": "climbing", "support": "sister"}, testapi.Decode(t, w)["facts"])

	w = env.Do(t, http.MethodPut, "/memories", token, map[string]any{"facts": map[string]any{"support": "sister"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"support": "sister"}, testapi.Decode(t, w)["facts"])
}

func TestMergeRejectsNonObject(t *testing.T) {
	env := testapi.New(t)
	memories.MountRoutes(env.Router, env.Store, env.Auth())
	_, token := env.User(t, "facts2@example.com")

	w := env.Do(t, http.MethodPost, "/memories", token, map[string]any{"facts": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoriesRequireAuth(t *testing.T) {
	env := testapi.New(t)
	memories.MountRoutes(env.Router, env.Store, env.Auth())
	assert.Equal(t, http.StatusUnauthorized, env.Do(t, http.MethodGet, "/memories", "", nil).Code)
}
