package intake_test

import (
	"net/http"
	"testing"

	"github.com/chirino/gina-service/internal/companion"
	"github.com/chirino/gina-service/internal/model"
	"github.com/chirino/gina-service/internal/plugin/route/intake"
	"github.com/chirino/gina-service/internal/testutil/testapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*testapi.Env, string, string) {
	env := testapi.New(t)
	intake.MountRoutes(env.Router, env.Store, env.Auth())
	user, token := env.User(t, "intake@example.com")
	return env, user.ID.String(), token
}

func TestSubmitIntake(t *testing.T) {
	env, userID, token := setup(t)

	w := env.Do(t, http.MethodPost, "/intake", token, map[string]any{
		"full_name":         "Jordan",
		"age":               "29",
		"severity":          4,
		"presenting_issues": "Panic at work",
		"goals":             "feel calmer",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	record := testapi.Decode(t, w)["intake"].(map[string]any)
	assert.Equal(t, "Jordan", record["full_name"])
	assert.Equal(t, float64(29), record["age"])
	assert.Equal(t, float64(4), record["severity"])
	assert.Equal(t, "CBT (with exposure)", record["suggestion"])

	facts, err := env.Store.GetFacts(env.Ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Jordan", facts[model.FactPreferredName])
	assert.Equal(t, "feel calmer", facts[model.FactGoals])
	assert.Equal(t, "Panic at work", facts[model.FactPresentingIssues])
	assert.Equal(t, "CBT (with exposure)", facts[model.FactTherapySuggestion])
	assert.NotEmpty(t, facts[model.FactIntakeLastUpdated])
}

func TestPartialSubmissionKeepsStoredAnswers(t *testing.T) {
	env, userID, token := setup(t)

	require.Equal(t, http.StatusOK, env.Do(t, http.MethodPost, "/intake", token, map[string]any{
		"full_name":         "Jordan",
		"presenting_issues": "trauma",
	}).Code)
	w := env.Do(t, http.MethodPost, "/intake", token, map[string]any{"location": "Leeds", "age": ""})
	require.Equal(t, http.StatusOK, w.Code)

	record := testapi.Decode(t, w)["intake"].(map[string]any)
	assert.Equal(t, "Jordan", record["full_name"])
	assert.Equal(t, "Leeds", record["location"])
	assert.Nil(t, record["age"])
	assert.Equal(t, "Trauma-focused CBT or EMDR", record["suggestion"])

	facts, err := env.Store.GetFacts(env.Ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Jordan", facts[model.FactPreferredName])
	assert.Equal(t, "Leeds", facts[model.FactLocation])
}

func TestSubmitRejectsNonNumericAge(t *testing.T) {
	env, _, token := setup(t)
	w := env.Do(t, http.MethodPost, "/intake", token, map[string]any{"age": "thirty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetIntake(t *testing.T) {
	env, _, token := setup(t)

	w := env.Do(t, http.MethodGet, "/intake", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := testapi.Decode(t, w)
	assert.Contains(t, body, "intake")
	assert.Nil(t, body["intake"])

	require.Equal(t, http.StatusOK, env.Do(t, http.MethodPost, "/intake", token, map[string]any{"pronouns": "they/them"}).Code)
	w = env.Do(t, http.MethodGet, "/intake", token, nil)
	assert.Equal(t, "they/them", testapi.Decode(t, w)["intake"].(map[string]any)["pronouns"])
}

func TestIntakeSummary(t *testing.T) {
	env, userID, token := setup(t)

	w := env.Do(t, http.MethodGet, "/intake/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, companion.NoIntakeSummary, testapi.Decode(t, w)["summary"])

	require.Equal(t, http.StatusOK, env.Do(t, http.MethodPost, "/intake", token, map[string]any{"full_name": "Jordan"}).Code)
	_, err := env.Store.MergeFacts(env.Ctx, userID, model.Facts{model.FactSummary: "We talked about sleep."})
	require.NoError(t, err)

	w = env.Do(t, http.MethodGet, "/intake/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := testapi.Decode(t, w)
	assert.Equal(t, "Name: Jordan\nSuggested therapy: Supportive Therapy\nConversation summary: We talked about sleep.", body["summary"])
	assert.Equal(t, "Jordan", body["facts"].(map[string]any)[model.FactPreferredName])
}
