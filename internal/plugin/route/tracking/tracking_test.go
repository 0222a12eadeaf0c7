package tracking_test

import (
	"net/http"
	"testing"

	"github.com/chirino/gina-service/internal/plugin/route/tracking"
	"github.com/chirino/gina-service/internal/testutil/testapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*testapi.Env, string) {
	env := testapi.New(t)
	tracking.MountRoutes(env.Router, env.Store, env.Auth())
	_, token := env.User(t, "tracker@example.com")
	return env, token
}

func TestMetricsLog(t *testing.T) {
	env, token := setup(t)

	w := env.Do(t, http.MethodPost, "/metrics-log", token, map[string]any{"type": "wellbeing", "value": "72", "notes": "good day"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	metric := testapi.Decode(t, w)["metric"].(map[string]any)
	assert.Equal(t, "wellbeing", metric["type"])
	assert.Equal(t, float64(72), metric["value"])

	w = env.Do(t, http.MethodPost, "/metrics-log", token, map[string]any{"type": "Mood", "label": "calm", "intensity": 4, "extras": map[string]any{"triggers": []string{"music"}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Do(t, http.MethodPost, "/metrics-log", token, map[string]any{"type": "energy", "value": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "type", testapi.Decode(t, w)["field"])

	w = env.Do(t, http.MethodGet, "/metrics-log", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testapi.Decode(t, w)["metrics"], 2)

	w = env.Do(t, http.MethodGet, "/metrics-log?type=mood", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	metrics := testapi.Decode(t, w)["metrics"].([]any)
	require.Len(t, metrics, 1)
	assert.Equal(t, "calm", metrics[0].(map[string]any)["label"])

	w = env.Do(t, http.MethodGet, "/metrics-log?type=sleep", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Do(t, http.MethodGet, "/metrics-log?limit=1", token, nil)
	assert.Len(t, testapi.Decode(t, w)["metrics"], 1)
}

func TestGoals(t *testing.T) {
	env, token := setup(t)

	w := env.Do(t, http.MethodPost, "/goals", token, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Do(t, http.MethodPost, "/goals", token, map[string]any{"title": "Walk daily"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	goal := testapi.Decode(t, w)["goal"].(map[string]any)
	assert.Equal(t, "active", goal["status"])
	assert.Equal(t, float64(0), goal["streakCount"])
	id := goal["id"].(string)

	w = env.Do(t, http.MethodPut, "/goals/"+id, token, map[string]any{
		"streakCount": 3,
		"lastDone":    "2026-05-04T08:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	goal = testapi.Decode(t, w)["goal"].(map[string]any)
	assert.Equal(t, float64(3), goal["streakCount"])
	assert.Equal(t, "Walk daily", goal["title"])
	assert.NotEmpty(t, goal["lastDone"])

	w = env.Do(t, http.MethodPut, "/goals/"+id, token, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Do(t, http.MethodGet, "/goals", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testapi.Decode(t, w)["goals"], 1)

	require.Equal(t, http.StatusOK, env.Do(t, http.MethodDelete, "/goals/"+id, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodDelete, "/goals/"+id, token, nil).Code)

	w = env.Do(t, http.MethodGet, "/goals", token, nil)
	assert.Equal(t, []any{}, testapi.Decode(t, w)["goals"])
}
