package conversations_test

import (
	"net/http"
	"testing"

	"github.com/chirino/gina-service/internal/model"
	"github.com/chirino/gina-service/internal/plugin/route/conversations"
	"github.com/chirino/gina-service/internal/testutil/testapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestAndClear(t *testing.T) {
	env := testapi.New(t)
	conversations.MountRoutes(env.Router, env.Store, env.Auth())
	user, token := env.User(t, "conv@example.com")

	w := env.Do(t, http.MethodGet, "/conversations/latest", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := testapi.Decode(t, w)
	assert.Equal(t, []any{}, body["history"])
	assert.NotContains(t, body, "updatedAt")

	require.NoError(t, env.Store.ReplaceHistory(env.Ctx, user.ID.String(), []model.Turn{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	}))

	w = env.Do(t, http.MethodGet, "/conversations/latest", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = testapi.Decode(t, w)
	history := body["history"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, map[string]any{"role": "user", "type": "user", "content": "hi"}, history[0])
	assert.Equal(t, map[string]any{"role": "assistant", "type": "ai", "content": "hello"}, history[1])
	assert.NotEmpty(t, body["updatedAt"])

	w = env.Do(t, http.MethodDelete, "/conversations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, testapi.Decode(t, w)["success"])

	stored, err := env.Store.GetLatestHistory(env.Ctx, user.ID.String())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestConversationsRequireAuth(t *testing.T) {
	env := testapi.New(t)
	conversations.MountRoutes(env.Router, env.Store, env.Auth())

	assert.Equal(t, http.StatusUnauthorized, env.Do(t, http.MethodGet, "/conversations/latest", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.Do(t, http.MethodDelete, "/conversations", "", nil).Code)
}
